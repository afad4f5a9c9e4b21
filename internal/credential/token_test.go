package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue(7, "alice")
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_DefaultTTL(t *testing.T) {
	m := NewTokenManager("s", 0)
	assert.Equal(t, DefaultTokenTTL, m.ttl)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(1, "alice")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_Tampered(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	token, err := m.Issue(1, "alice")
	require.NoError(t, err)

	other := NewTokenManager("other-secret", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = m.Parse(token[:len(token)-2] + "xx")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

// Package credential hashes passwords and issues signed session tokens.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const saltBytes = 16

// HashPassword returns "salt:digest", both hex encoded. The digest is
// SHA-256 over the password followed by the hex salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	saltHex := hex.EncodeToString(salt)
	return saltHex + ":" + digest(password, saltHex), nil
}

// VerifyPassword reports whether password matches stored. Accounts seeded by
// the admin tooling may carry bcrypt hashes; those are checked with bcrypt.
func VerifyPassword(password, stored string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	salt, want, ok := strings.Cut(stored, ":")
	if !ok || salt == "" || want == "" {
		return false
	}
	got := digest(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func digest(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

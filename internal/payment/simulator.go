// Package payment holds the stand-in card processor used at checkout.
package payment

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TestCardNumber = "4548810000000003"
	DeclineMessage = "Tarjeta rechazada. Por favor, verifica los datos e inténtalo de nuevo."
)

type Card struct {
	Number string
	Expiry string
	CVV    string
	Holder string
}

type Result struct {
	Approved          bool
	AuthorizationCode string
	Reason            string
}

type Gateway interface {
	Capture(ctx context.Context, card Card, amount decimal.Decimal) (Result, error)
}

// Simulator approves exactly one card number and declines everything else.
type Simulator struct {
	testCard string
	delay    time.Duration
	codeFn   func() (string, error)
}

func NewSimulator(testCard string, delay time.Duration) *Simulator {
	if testCard == "" {
		testCard = TestCardNumber
	}
	return &Simulator{testCard: testCard, delay: delay, codeFn: AuthorizationCode}
}

func (s *Simulator) Capture(ctx context.Context, card Card, _ decimal.Decimal) (Result, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if card.Number != s.testCard {
		return Result{Approved: false, Reason: DeclineMessage}, nil
	}

	code, err := s.codeFn()
	if err != nil {
		return Result{}, fmt.Errorf("generate authorization code: %w", err)
	}
	return Result{Approved: true, AuthorizationCode: code}, nil
}

// AuthorizationCode returns a random code in [100000, 999999].
func AuthorizationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Package mfa orchestrates TOTP challenge flows against the identity
// provider. The provider owns the factors and the code verification; this
// package only sequences the calls and enforces local preconditions.
package mfa

import (
	"context"
	"errors"
	"fmt"

	"github.com/wisbric/leadping/internal/identity"
)

// Gate errors. ErrNoFactorsEnrolled is terminal: the account must enroll a
// factor before any gated operation can proceed.
var (
	ErrNoFactorsEnrolled = errors.New("no MFA factors enrolled")
	ErrFactorSelection   = errors.New("multiple factors enrolled, selection required")
	ErrInvalidCodeFormat = errors.New("verification code must be 6 digits")
)

// state tracks a gate's progress through one verification attempt.
type state int

const (
	stateIdle state = iota
	stateFactorsLoaded
	stateFactorSelected
	stateChallengeIssued
	stateVerified
	stateFailed
)

// Gate sequences one MFA verification attempt: load factors, select one,
// issue a challenge, verify a code. A Gate is single-use per attempt and
// not safe for concurrent use; retries re-challenge from the selected
// factor because challenges are single-use.
type Gate struct {
	provider  identity.Provider
	accountID string

	state     state
	factors   []identity.Factor
	factorID  string
	challenge *identity.Challenge
}

// NewGate creates a gate for one account's verification attempt.
func NewGate(provider identity.Provider, accountID string) *Gate {
	return &Gate{provider: provider, accountID: accountID}
}

// Begin loads the account's verified factors. With exactly one factor it is
// auto-selected; with several the caller must Select one; with none the
// attempt ends at ErrNoFactorsEnrolled without touching the provider again.
func (g *Gate) Begin(ctx context.Context) error {
	factors, err := g.provider.ListFactors(ctx, g.accountID)
	if err != nil {
		g.state = stateFailed
		return fmt.Errorf("listing factors: %w", err)
	}

	verified := factors[:0]
	for _, f := range factors {
		if f.Status == "verified" {
			verified = append(verified, f)
		}
	}

	if len(verified) == 0 {
		g.state = stateFailed
		return ErrNoFactorsEnrolled
	}

	g.factors = verified
	g.state = stateFactorsLoaded

	if len(verified) == 1 {
		g.factorID = verified[0].ID
		g.state = stateFactorSelected
	}
	return nil
}

// Factors returns the verified factors loaded by Begin.
func (g *Gate) Factors() []identity.Factor {
	return g.factors
}

// FactorID returns the selected factor, or "" before selection.
func (g *Gate) FactorID() string {
	return g.factorID
}

// Select picks one of the loaded factors. Only needed when Begin found more
// than one.
func (g *Gate) Select(factorID string) error {
	if g.state != stateFactorsLoaded && g.state != stateFactorSelected {
		return fmt.Errorf("factor selection before Begin")
	}
	for _, f := range g.factors {
		if f.ID == factorID {
			g.factorID = factorID
			g.state = stateFactorSelected
			return nil
		}
	}
	return fmt.Errorf("factor %q not enrolled for this account", factorID)
}

// Challenge issues a fresh provider challenge for the selected factor.
// Called again after a failed Verify to get a new single-use challenge.
func (g *Gate) Challenge(ctx context.Context) (*identity.Challenge, error) {
	if g.factorID == "" {
		if g.state == stateFactorsLoaded {
			return nil, ErrFactorSelection
		}
		return nil, fmt.Errorf("challenge before factor selection")
	}

	ch, err := g.provider.CreateChallenge(ctx, g.accountID, g.factorID)
	if err != nil {
		g.state = stateFailed
		return nil, err
	}
	g.challenge = ch
	g.state = stateChallengeIssued
	return ch, nil
}

// Verify submits the code for the issued challenge. The 6-digit shape is
// checked locally so obviously bad input never consumes a challenge.
// Provider rejections surface verbatim; the gate drops back to the selected
// factor so the caller can re-Challenge.
func (g *Gate) Verify(ctx context.Context, code string) error {
	if g.state != stateChallengeIssued {
		return fmt.Errorf("verify before challenge")
	}
	if !ValidCode(code) {
		return ErrInvalidCodeFormat
	}

	if err := g.provider.VerifyChallenge(ctx, g.accountID, g.factorID, g.challenge.ID, code); err != nil {
		g.state = stateFactorSelected
		g.challenge = nil
		return err
	}

	g.state = stateVerified
	return nil
}

// Verified reports whether the attempt ended in a successful verification.
func (g *Gate) Verified() bool {
	return g.state == stateVerified
}

// ValidCode reports whether code looks like a TOTP code: exactly six ASCII
// digits.
func ValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

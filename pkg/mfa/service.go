package mfa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wisbric/leadping/internal/identity"
)

// Proof is an inline MFA assertion: a code for a previously issued
// challenge. Sensitive account operations require one in the request body.
type Proof struct {
	FactorID    string `json:"factor_id" validate:"required"`
	ChallengeID string `json:"challenge_id" validate:"required"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
}

// Service exposes factor management and challenge verification on top of
// the identity provider.
type Service struct {
	provider identity.Provider
	logger   *slog.Logger
	verifies *prometheus.CounterVec // optional
}

// NewService creates an MFA Service. verifies may be nil.
func NewService(provider identity.Provider, logger *slog.Logger, verifies *prometheus.CounterVec) *Service {
	return &Service{provider: provider, logger: logger, verifies: verifies}
}

// ListFactors returns the account's verified factors.
func (s *Service) ListFactors(ctx context.Context, accountID string) ([]identity.Factor, error) {
	factors, err := s.provider.ListFactors(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing factors: %w", err)
	}

	verified := make([]identity.Factor, 0, len(factors))
	for _, f := range factors {
		if f.Status == "verified" {
			verified = append(verified, f)
		}
	}
	return verified, nil
}

// StartChallenge begins a verification attempt and issues a challenge.
// factorID may be "" when the account has a single factor.
func (s *Service) StartChallenge(ctx context.Context, accountID, factorID string) (string, *identity.Challenge, error) {
	gate := NewGate(s.provider, accountID)
	if err := gate.Begin(ctx); err != nil {
		return "", nil, err
	}
	if factorID != "" {
		if err := gate.Select(factorID); err != nil {
			return "", nil, err
		}
	}

	ch, err := gate.Challenge(ctx)
	if err != nil {
		return "", nil, err
	}
	return gate.FactorID(), ch, nil
}

// VerifyProof checks an inline proof against the provider. Used both by the
// verify endpoint and by handlers gating sensitive operations.
func (s *Service) VerifyProof(ctx context.Context, accountID string, proof Proof) error {
	if !ValidCode(proof.Code) {
		s.countVerify("rejected")
		return ErrInvalidCodeFormat
	}

	err := s.provider.VerifyChallenge(ctx, accountID, proof.FactorID, proof.ChallengeID, proof.Code)
	switch {
	case err == nil:
		s.countVerify("verified")
		return nil
	case identity.IsNotFound(err):
		s.countVerify("rejected")
		return err
	default:
		var pe *identity.Error
		if errors.As(err, &pe) && pe.Status < 500 {
			s.countVerify("rejected")
		} else {
			s.countVerify("provider_error")
		}
		return err
	}
}

// Enroll registers a new TOTP factor and returns the provisioning payload.
// The factor stays unverified until Activate succeeds.
func (s *Service) Enroll(ctx context.Context, accountID, friendlyName string) (*identity.Enrollment, error) {
	enr, err := s.provider.EnrollFactor(ctx, accountID, friendlyName)
	if err != nil {
		return nil, err
	}
	s.logger.Info("mfa factor enrolled", "account_id", accountID, "factor_id", enr.FactorID)
	return enr, nil
}

// Activate proves possession of a freshly enrolled factor with its first
// code, flipping it to verified.
func (s *Service) Activate(ctx context.Context, accountID, factorID, code string) error {
	if !ValidCode(code) {
		return ErrInvalidCodeFormat
	}

	ch, err := s.provider.CreateChallenge(ctx, accountID, factorID)
	if err != nil {
		return err
	}
	if err := s.provider.VerifyChallenge(ctx, accountID, factorID, ch.ID, code); err != nil {
		return err
	}

	s.logger.Info("mfa factor activated", "account_id", accountID, "factor_id", factorID)
	return nil
}

// Unenroll removes a factor. The caller is responsible for requiring a
// proof first.
func (s *Service) Unenroll(ctx context.Context, accountID, factorID string) error {
	if err := s.provider.DeleteFactor(ctx, accountID, factorID); err != nil {
		return err
	}
	s.logger.Info("mfa factor removed", "account_id", accountID, "factor_id", factorID)
	return nil
}

func (s *Service) countVerify(result string) {
	if s.verifies != nil {
		s.verifies.WithLabelValues(result).Inc()
	}
}

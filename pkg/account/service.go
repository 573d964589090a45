// Package account exposes the caller's own account: profile readback,
// password changes, and account deletion. The identity provider owns the
// underlying records; sensitive operations require an inline MFA proof.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wisbric/leadping/internal/identity"
	"github.com/wisbric/leadping/pkg/mfa"
	"github.com/wisbric/leadping/pkg/notification"
)

// Profile is the authenticated account's own view of itself.
type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	WebhookURL string    `json:"webhook_url"`
}

// Service orchestrates account operations against the identity provider.
type Service struct {
	provider   identity.Provider
	reconciler *notification.Reconciler
	mfa        *mfa.Service
	logger     *slog.Logger
	webhookURL func(accountID string) string
}

// NewService creates an account Service. webhookURL builds the account's
// inbound lead URL for profile readback.
func NewService(provider identity.Provider, reconciler *notification.Reconciler, mfaService *mfa.Service, logger *slog.Logger, webhookURL func(string) string) *Service {
	return &Service{
		provider:   provider,
		reconciler: reconciler,
		mfa:        mfaService,
		logger:     logger,
		webhookURL: webhookURL,
	}
}

// Me returns the caller's profile. Fetching the profile also heals a
// missing notification config from the signup phone, so an account whose
// provisioning hook never fired gets its config on first login.
func (s *Service) Me(ctx context.Context, accountID string) (*Profile, error) {
	user, err := s.provider.GetUser(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.reconciler.Ensure(ctx, accountID, user.SignupPhone()); err != nil {
		// Readback still works without a config; log and move on.
		s.logger.Error("reconciling notification config", "error", err, "account_id", accountID)
	}

	return &Profile{
		ID:         user.ID,
		Email:      user.Email,
		CreatedAt:  user.CreatedAt,
		WebhookURL: s.webhookURL(accountID),
	}, nil
}

// UpdatePassword changes the account password after verifying the MFA
// proof. The proof failure is returned untouched so the provider's message
// reaches the client.
func (s *Service) UpdatePassword(ctx context.Context, accountID string, proof mfa.Proof, newPassword string) error {
	if err := s.mfa.VerifyProof(ctx, accountID, proof); err != nil {
		return err
	}

	if err := s.provider.UpdatePassword(ctx, accountID, newPassword); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	s.logger.Info("account password changed", "account_id", accountID)
	return nil
}

// Delete removes the account at the provider after verifying the MFA
// proof. The notification config cascades with the account row.
func (s *Service) Delete(ctx context.Context, accountID string, proof mfa.Proof) error {
	if err := s.mfa.VerifyProof(ctx, accountID, proof); err != nil {
		return err
	}

	if err := s.provider.DeleteUser(ctx, accountID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	s.logger.Info("account deleted", "account_id", accountID)
	return nil
}

package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wisbric/leadping/pkg/messaging"
	"github.com/wisbric/leadping/pkg/phone"
)

// configStore is the storage surface the service and reconciler consume.
// *Store satisfies it; tests substitute an in-memory fake.
type configStore interface {
	Get(ctx context.Context, accountID string) (*Config, error)
	Upsert(ctx context.Context, c Config) error
}

// Service encapsulates settings reads and writes for one account's config.
type Service struct {
	store  configStore
	logger *slog.Logger

	// publicBaseURL is prepended to the per-account webhook path shown to
	// the user in settings.
	publicBaseURL string
}

// NewService creates a settings Service.
func NewService(store configStore, publicBaseURL string, logger *slog.Logger) *Service {
	return &Service{store: store, publicBaseURL: publicBaseURL, logger: logger}
}

// WebhookURL returns the inbound lead webhook URL for an account. The token
// in the path is the only credential; the URL is shown once in settings and
// pasted into the external form builder.
func (s *Service) WebhookURL(accountID string) string {
	return s.publicBaseURL + "/hooks/lead-alert/" + accountID
}

// Settings returns the account's current settings in display form: the
// channel suffix is stripped from the phone and an absent or empty template
// is replaced by the built-in default.
func (s *Service) Settings(ctx context.Context, accountID string) (*SettingsResponse, error) {
	cfg, err := s.store.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	resp := &SettingsResponse{
		Template:   messaging.DefaultTemplate,
		WebhookURL: s.WebhookURL(accountID),
	}
	if cfg == nil {
		return resp, nil
	}

	resp.Configured = true
	resp.Phone = phone.DisplayNumber(cfg.ChatID)
	if cfg.Template != "" {
		resp.Template = cfg.Template
	}
	resp.UpdatedAt = cfg.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	return resp, nil
}

// Update canonicalizes the phone and writes the account's config.
func (s *Service) Update(ctx context.Context, accountID string, req UpdateRequest) (*SettingsResponse, error) {
	cfg := Config{
		SecretToken: accountID,
		ChatID:      phone.Canonicalize(req.Phone),
		Template:    req.Template,
	}

	if err := s.store.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	s.logger.Info("notification settings updated",
		"account_id", accountID,
		"chat_id", cfg.ChatID,
	)

	return s.Settings(ctx, accountID)
}

// Package seed provisions demo data for local development.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wisbric/leadping/pkg/messaging"
	"github.com/wisbric/leadping/pkg/notification"
	"github.com/wisbric/leadping/pkg/phone"
)

// DevAccountID is the account seeded for development/testing. It doubles as
// the webhook secret token, so a local form can post to
// /hooks/lead-alert/dev-seed-account without real signup.
const DevAccountID = "dev-seed-account"

// Run provisions the development notification config. Idempotent:
// re-running converges to the same row.
func Run(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	store := notification.NewStore(pool)

	existing, err := store.Get(ctx, DevAccountID)
	if err != nil {
		return fmt.Errorf("checking seed config: %w", err)
	}
	if existing != nil {
		logger.Info("seed: dev config already exists", "account_id", DevAccountID)
		return nil
	}

	cfg := devConfig()
	if err := store.Upsert(ctx, cfg); err != nil {
		return fmt.Errorf("seeding dev config: %w", err)
	}

	logger.Info("seed: provisioned dev notification config",
		"account_id", DevAccountID,
		"chat_id", cfg.ChatID,
	)
	return nil
}

// devConfig is the config row Run provisions. The phone is pre-stripped of
// separators so the stored chat id is digits plus the channel suffix.
func devConfig() notification.Config {
	return notification.Config{
		SecretToken: DevAccountID,
		ChatID:      phone.Canonicalize("0500000000"),
		Template:    messaging.DefaultTemplate,
	}
}

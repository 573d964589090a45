package notification

import (
	"context"
	"log/slog"

	"github.com/wisbric/leadping/pkg/messaging"
	"github.com/wisbric/leadping/pkg/phone"
)

// Reconciler guarantees that every account ends up with a notification
// config without requiring the user to visit settings. The signup trigger
// that normally creates the record can fail; the reconciler self-heals on
// the next session.
type Reconciler struct {
	store  configStore
	logger *slog.Logger
}

// NewReconciler creates a Reconciler over the given store.
func NewReconciler(store configStore, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Ensure provisions a default config for the account if none exists and the
// signup metadata carried a phone number. Idempotent and safe to run
// concurrently from multiple sessions of the same account: the write is
// deterministic, so duplicate upserts converge to the same state.
//
// An account with no config and no signup phone is left unconfigured; the
// user must configure manually. That is not an error.
func (r *Reconciler) Ensure(ctx context.Context, accountID, signupPhone string) error {
	cfg, err := r.store.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if cfg != nil {
		return nil
	}

	if signupPhone == "" {
		r.logger.Debug("account has no config and no signup phone, leaving unconfigured",
			"account_id", accountID)
		return nil
	}

	newCfg := Config{
		SecretToken: accountID,
		ChatID:      phone.Canonicalize(signupPhone),
		Template:    messaging.DefaultTemplate,
	}
	if err := r.store.Upsert(ctx, newCfg); err != nil {
		return err
	}

	r.logger.Info("provisioned missing notification config from signup metadata",
		"account_id", accountID,
		"chat_id", newCfg.ChatID,
	)
	return nil
}

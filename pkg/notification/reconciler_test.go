package notification

import (
	"context"
	"log/slog"
	"testing"

	"github.com/wisbric/leadping/pkg/messaging"
)

func TestReconcilerProvisionsFromSignupPhone(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, slog.Default())

	if err := rec.Ensure(context.Background(), "acct-1", "0501234567"); err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}

	cfg, ok := store.configs["acct-1"]
	if !ok {
		t.Fatal("no config provisioned")
	}
	if cfg.ChatID != "972501234567@c.us" {
		t.Errorf("ChatID = %q, want canonicalized signup phone", cfg.ChatID)
	}
	if cfg.Template != messaging.DefaultTemplate {
		t.Errorf("Template = %q, want built-in default", cfg.Template)
	}
}

func TestReconcilerIdempotent(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, slog.Default())

	for i := 0; i < 2; i++ {
		if err := rec.Ensure(context.Background(), "acct-1", "0501234567"); err != nil {
			t.Fatalf("Ensure() run %d error: %v", i+1, err)
		}
	}

	if store.upserts != 1 {
		t.Errorf("upserts = %d, want 1 (second run must be a no-op)", store.upserts)
	}
	if len(store.configs) != 1 {
		t.Errorf("config records = %d, want 1", len(store.configs))
	}
}

func TestReconcilerExistingConfigUntouched(t *testing.T) {
	store := newFakeStore()
	store.configs["acct-1"] = Config{
		SecretToken: "acct-1",
		ChatID:      "972509999999@c.us",
		Template:    "custom",
	}
	rec := NewReconciler(store, slog.Default())

	if err := rec.Ensure(context.Background(), "acct-1", "0501234567"); err != nil {
		t.Fatalf("Ensure() error: %v", err)
	}

	cfg := store.configs["acct-1"]
	if cfg.ChatID != "972509999999@c.us" || cfg.Template != "custom" {
		t.Errorf("existing config mutated: %+v", cfg)
	}
	if store.upserts != 0 {
		t.Errorf("upserts = %d, want 0", store.upserts)
	}
}

func TestReconcilerNoPhoneIsNotAnError(t *testing.T) {
	store := newFakeStore()
	rec := NewReconciler(store, slog.Default())

	if err := rec.Ensure(context.Background(), "acct-1", ""); err != nil {
		t.Fatalf("Ensure() with no signup phone error: %v", err)
	}
	if len(store.configs) != 0 {
		t.Errorf("config records = %d, want 0 (account left unconfigured)", len(store.configs))
	}
}

package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/wisbric/leadping/pkg/messaging"
)

// fakeStore is an in-memory configStore.
type fakeStore struct {
	mu      sync.Mutex
	configs map[string]Config
	upserts int
	getErr  error
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{configs: map[string]Config{}}
}

func (f *fakeStore) Get(_ context.Context, accountID string) (*Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.configs[accountID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeStore) Upsert(_ context.Context, c Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	c.UpdatedAt = time.Now()
	f.configs[c.SecretToken] = c
	f.upserts++
	return nil
}

func TestServiceUpdateCanonicalizesPhone(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, "https://app.example.com", slog.Default())

	resp, err := svc.Update(context.Background(), "acct-1", UpdateRequest{
		Phone:    "0501234567",
		Template: "Hi {{name}}",
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	stored := store.configs["acct-1"]
	if stored.ChatID != "972501234567@c.us" {
		t.Errorf("stored ChatID = %q, want canonical form", stored.ChatID)
	}
	if resp.Phone != "972501234567" {
		t.Errorf("display Phone = %q, want suffix stripped", resp.Phone)
	}
	if resp.WebhookURL != "https://app.example.com/hooks/lead-alert/acct-1" {
		t.Errorf("WebhookURL = %q", resp.WebhookURL)
	}
}

func TestServiceUpsertNeverDuplicates(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, "http://localhost", slog.Default())

	for _, tmpl := range []string{"first", "second"} {
		if _, err := svc.Update(context.Background(), "acct-1", UpdateRequest{
			Phone:    "0501234567",
			Template: tmpl,
		}); err != nil {
			t.Fatalf("Update() error: %v", err)
		}
	}

	if len(store.configs) != 1 {
		t.Fatalf("config records = %d, want 1", len(store.configs))
	}
	if got := store.configs["acct-1"].Template; got != "second" {
		t.Errorf("Template after second write = %q, want latest write", got)
	}
}

func TestServiceSettingsDefaults(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, "http://localhost", slog.Default())

	// Unconfigured account: default template, empty phone, not configured.
	resp, err := svc.Settings(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("Settings() error: %v", err)
	}
	if resp.Configured {
		t.Error("Configured = true for missing record")
	}
	if resp.Template != messaging.DefaultTemplate {
		t.Errorf("Template = %q, want default", resp.Template)
	}

	// A record with an empty template still displays the default.
	store.configs["acct-1"] = Config{SecretToken: "acct-1", ChatID: "972501234567@c.us"}
	resp, err = svc.Settings(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("Settings() error: %v", err)
	}
	if !resp.Configured {
		t.Error("Configured = false for existing record")
	}
	if resp.Phone != "972501234567" {
		t.Errorf("Phone = %q, want @c.us stripped", resp.Phone)
	}
	if resp.Template != messaging.DefaultTemplate {
		t.Errorf("Template = %q, want default for empty stored template", resp.Template)
	}
}

func TestServiceUpdateSurfacesStoreError(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("connection refused")
	svc := NewService(store, "http://localhost", slog.Default())

	_, err := svc.Update(context.Background(), "acct-1", UpdateRequest{Phone: "0501234567", Template: "x"})
	if err == nil {
		t.Fatal("expected store error to surface")
	}
}

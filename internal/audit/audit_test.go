package audit

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/wisbric/leadping/internal/auth"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		want       string
	}{
		{"x-forwarded-for first entry", "203.0.113.50, 70.41.3.18", "", "192.0.2.1:12345", "203.0.113.50"},
		{"x-real-ip", "", "198.51.100.23", "192.0.2.1:12345", "198.51.100.23"},
		{"remote addr fallback", "", "", "192.0.2.1:12345", "192.0.2.1"},
		{"xff takes precedence", "203.0.113.50", "198.51.100.23", "192.0.2.1:12345", "203.0.113.50"},
		{"invalid xff falls back", "not-an-ip", "", "192.0.2.1:12345", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				r.Header.Set("X-Real-IP", tt.xRealIP)
			}
			r.RemoteAddr = tt.remoteAddr

			if got := clientIP(r); got != netip.MustParseAddr(tt.want) {
				t.Errorf("clientIP = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogDropsWhenFull(t *testing.T) {
	w := &Writer{
		logger:  slog.Default(),
		entries: make(chan Entry, 1),
	}

	// First entry fits, second is dropped without blocking.
	w.Log(Entry{Action: "update"})
	w.Log(Entry{Action: "update"})

	if len(w.entries) != 1 {
		t.Errorf("buffered entries = %d, want 1", len(w.entries))
	}
}

func TestLogFromRequestExtractsAccount(t *testing.T) {
	w := &Writer{
		logger:  slog.Default(),
		entries: make(chan Entry, 4),
	}

	r := httptest.NewRequest("PUT", "/api/v1/settings/notifications", nil)
	r.Header.Set("User-Agent", "test-agent")
	r = r.WithContext(auth.NewContext(r.Context(), &auth.Identity{AccountID: "acct-1"}))

	w.LogFromRequest(r, "update", "notification_config", json.RawMessage(`{"chat_id":"x@c.us"}`))

	entry := <-w.entries
	if entry.AccountID != "acct-1" {
		t.Errorf("AccountID = %q, want acct-1", entry.AccountID)
	}
	if entry.Action != "update" || entry.Resource != "notification_config" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.UserAgent == nil || *entry.UserAgent != "test-agent" {
		t.Errorf("UserAgent not captured: %+v", entry.UserAgent)
	}
}

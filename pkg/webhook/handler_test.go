package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wisbric/leadping/pkg/notification"
)

func newTestHandler(store ConfigStore, gw Gateway) *Handler {
	d := NewDispatcher(store, gw, nil, nil, slog.Default())
	return NewHandler(slog.Default(), d, nil)
}

func TestHandleLeadDelivered(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{
		"tok-1": {SecretToken: "tok-1", ChatID: "972501234567@c.us", Template: "{{name}}: {{tel}}"},
	}}
	gw := &fakeGateway{}
	h := newTestHandler(store, gw)

	req := httptest.NewRequest(http.MethodPost, "/lead-alert/tok-1",
		strings.NewReader(`{"name":"Dana","tel":"0501234567"}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var result DispatchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Status != StatusDelivered {
		t.Errorf("result status = %q, want %q", result.Status, StatusDelivered)
	}
	if gw.message != "Dana: 0501234567" {
		t.Errorf("gateway message = %q", gw.message)
	}
}

func TestHandleLeadUnknownToken(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{}}
	gw := &fakeGateway{}
	h := newTestHandler(store, gw)

	req := httptest.NewRequest(http.MethodPost, "/lead-alert/bogus",
		strings.NewReader(`{"name":"Dana"}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.calls)
	}
}

func TestHandleLeadMalformedBodyStillDispatches(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{
		"tok-1": {SecretToken: "tok-1", ChatID: "1@c.us", Template: "n={{name}}"},
	}}
	gw := &fakeGateway{}
	h := newTestHandler(store, gw)

	req := httptest.NewRequest(http.MethodPost, "/lead-alert/tok-1",
		strings.NewReader(`this is not json`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	if gw.message != "n=" {
		t.Errorf("message = %q, want empty substitution", gw.message)
	}
}

func TestHandleLeadGatewayFailureStillAcks(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{
		"tok-1": {SecretToken: "tok-1", ChatID: "1@c.us", Template: "t"},
	}}
	gw := &fakeGateway{sendErr: context.DeadlineExceeded}
	h := newTestHandler(store, gw)

	req := httptest.NewRequest(http.MethodPost, "/lead-alert/tok-1",
		strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on gateway failure", rec.Code)
	}

	var result DispatchResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.Status != StatusGatewayError {
		t.Errorf("result status = %q, want %q", result.Status, StatusGatewayError)
	}
}

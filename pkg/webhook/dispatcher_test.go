package webhook

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/wisbric/leadping/pkg/notification"
)

type fakeConfigStore struct {
	configs map[string]*notification.Config
	err     error
}

func (f *fakeConfigStore) Get(_ context.Context, accountID string) (*notification.Config, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.configs[accountID], nil
}

type fakeGateway struct {
	calls   int
	chatID  string
	message string
	sendErr error
}

func (f *fakeGateway) Send(_ context.Context, chatID, message string) error {
	f.calls++
	f.chatID = chatID
	f.message = message
	return f.sendErr
}

type fakeReporter struct {
	failures int
}

func (f *fakeReporter) ReportDispatchFailure(_ context.Context, _, _ string, _ error) {
	f.failures++
}

func TestDispatcherDelivers(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{
		"acct-1": {
			SecretToken: "acct-1",
			ChatID:      "972501234567@c.us",
			Template:    "ליד: {{name}} / {{tel}}",
		},
	}}
	gw := &fakeGateway{}
	d := NewDispatcher(store, gw, nil, nil, slog.Default())

	lead := LeadEvent{"name": "Dana", "tel": "0500000000", "utm_source": "fb"}
	result, err := d.Handle(context.Background(), "acct-1", lead, nil)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	if result.Status != StatusDelivered {
		t.Errorf("Status = %q, want %q", result.Status, StatusDelivered)
	}
	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	if gw.chatID != "972501234567@c.us" {
		t.Errorf("gateway chatID = %q", gw.chatID)
	}
	if gw.message != "ליד: Dana / 0500000000" {
		t.Errorf("gateway message = %q", gw.message)
	}
}

func TestDispatcherUnknownAccountNoOutboundCall(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{}}
	gw := &fakeGateway{}
	d := NewDispatcher(store, gw, nil, nil, slog.Default())

	_, err := d.Handle(context.Background(), "nope", LeadEvent{"name": "x"}, nil)
	if !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("err = %v, want ErrUnknownAccount", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.calls)
	}
}

func TestDispatcherGatewayErrorIsReportedNotRetried(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{
		"acct-1": {SecretToken: "acct-1", ChatID: "1@c.us", Template: "t"},
	}}
	gw := &fakeGateway{sendErr: errors.New("gateway down")}
	rep := &fakeReporter{}
	d := NewDispatcher(store, gw, nil, rep, slog.Default())

	result, err := d.Handle(context.Background(), "acct-1", LeadEvent{}, nil)
	if err != nil {
		t.Fatalf("Handle() error = %v, gateway failure must not be an error", err)
	}
	if result.Status != StatusGatewayError {
		t.Errorf("Status = %q, want %q", result.Status, StatusGatewayError)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1 (no retry)", gw.calls)
	}
	if rep.failures != 1 {
		t.Errorf("reported failures = %d, want 1", rep.failures)
	}
}

func TestDispatcherMissingFieldsRenderEmpty(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{
		"acct-1": {SecretToken: "acct-1", ChatID: "1@c.us", Template: "n={{name}} t={{tel}}"},
	}}
	gw := &fakeGateway{}
	d := NewDispatcher(store, gw, nil, nil, slog.Default())

	result, err := d.Handle(context.Background(), "acct-1", LeadEvent{"unrelated": true}, nil)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if result.Status != StatusDelivered {
		t.Errorf("Status = %q", result.Status)
	}
	if gw.message != "n= t=" {
		t.Errorf("message = %q, want empty substitutions", gw.message)
	}
}

func TestDispatcherSuppressesDuplicateLead(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]*notification.Config{
		"acct-1": {SecretToken: "acct-1", ChatID: "1@c.us", Template: "{{name}}"},
	}}
	gw := &fakeGateway{}
	_, client := setupTestRedis(t)
	dedup := NewDeduplicator(client, slog.Default(), nil)
	d := NewDispatcher(store, gw, dedup, nil, slog.Default())

	lead := LeadEvent{"name": "Dana"}
	body := []byte(`{"name":"Dana"}`)

	first, err := d.Handle(context.Background(), "acct-1", lead, body)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if first.Status != StatusDelivered {
		t.Fatalf("first Status = %q, want %q", first.Status, StatusDelivered)
	}

	second, err := d.Handle(context.Background(), "acct-1", lead, body)
	if err != nil {
		t.Fatalf("Handle() repeat error: %v", err)
	}
	if second.Status != StatusDuplicate {
		t.Errorf("repeat Status = %q, want %q", second.Status, StatusDuplicate)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1 (duplicate must not dispatch)", gw.calls)
	}
}

func TestDispatcherStoreErrorSurfaces(t *testing.T) {
	store := &fakeConfigStore{err: errors.New("connection refused")}
	gw := &fakeGateway{}
	d := NewDispatcher(store, gw, nil, nil, slog.Default())

	_, err := d.Handle(context.Background(), "acct-1", LeadEvent{}, nil)
	if err == nil || errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("err = %v, want store error", err)
	}
	if gw.calls != 0 {
		t.Errorf("gateway calls = %d, want 0", gw.calls)
	}
}

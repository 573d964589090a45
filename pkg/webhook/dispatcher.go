package webhook

import (
	"context"
	"errors"
	"log/slog"

	"github.com/wisbric/leadping/pkg/messaging"
	"github.com/wisbric/leadping/pkg/notification"
)

// ErrUnknownAccount means the secret token resolved to no notification
// config. Dispatch is a no-op and is never retried: the token is either
// wrong or the account was deleted.
var ErrUnknownAccount = errors.New("unknown account")

// Dispatch result statuses. Gateway failures are reported, not retried;
// retry policy, if any, belongs to the gateway collaborator.
const (
	StatusDelivered    = "delivered"
	StatusGatewayError = "gateway_error"
	StatusDuplicate    = "duplicate"
)

// DispatchResult describes the outcome of handling one lead event.
type DispatchResult struct {
	Status string `json:"status"`
	ChatID string `json:"-"`
}

// ConfigStore resolves a secret token to the owning account's config.
type ConfigStore interface {
	Get(ctx context.Context, accountID string) (*notification.Config, error)
}

// FailureReporter is notified about gateway delivery failures (best-effort
// ops visibility, e.g. a Slack channel). Implementations must not block.
type FailureReporter interface {
	ReportDispatchFailure(ctx context.Context, accountID, chatID string, err error)
}

// Dispatcher resolves, renders, and forwards lead notifications. It holds
// no per-request state and is safe for concurrent use across accounts.
type Dispatcher struct {
	store    ConfigStore
	gateway  Gateway
	dedup    *Deduplicator // optional
	reporter FailureReporter // optional
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. dedup and reporter may be nil.
func NewDispatcher(store ConfigStore, gateway Gateway, dedup *Deduplicator, reporter FailureReporter, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		gateway:  gateway,
		dedup:    dedup,
		reporter: reporter,
		logger:   logger,
	}
}

// Handle processes one lead event for the account identified by the secret
// token. rawBody is the undecoded request body, used only for duplicate
// detection so that field aliasing cannot defeat it.
//
// Returns ErrUnknownAccount when no config exists. A store failure is
// returned as-is. Gateway failure is NOT an error: the event was accepted,
// the result records the delivery outcome.
func (d *Dispatcher) Handle(ctx context.Context, accountID string, lead LeadEvent, rawBody []byte) (DispatchResult, error) {
	cfg, err := d.store.Get(ctx, accountID)
	if err != nil {
		return DispatchResult{}, err
	}
	if cfg == nil {
		return DispatchResult{}, ErrUnknownAccount
	}

	if d.dedup != nil && d.dedup.IsDuplicate(ctx, accountID, rawBody) {
		d.logger.Info("duplicate lead suppressed", "account_id", accountID)
		return DispatchResult{Status: StatusDuplicate, ChatID: cfg.ChatID}, nil
	}

	message := messaging.Render(cfg.Template, lead.Fields())

	if err := d.gateway.Send(ctx, cfg.ChatID, message); err != nil {
		d.logger.Error("gateway delivery failed",
			"account_id", accountID,
			"chat_id", cfg.ChatID,
			"error", err,
		)
		if d.reporter != nil {
			d.reporter.ReportDispatchFailure(ctx, accountID, cfg.ChatID, err)
		}
		return DispatchResult{Status: StatusGatewayError, ChatID: cfg.ChatID}, nil
	}

	d.logger.Info("lead notification dispatched",
		"account_id", accountID,
		"chat_id", cfg.ChatID,
	)
	return DispatchResult{Status: StatusDelivered, ChatID: cfg.ChatID}, nil
}

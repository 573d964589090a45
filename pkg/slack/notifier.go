// Package slack posts operational notices to a Slack channel. Delivery
// failures of lead notifications are invisible to the submitting form, so
// the ops channel is where they surface.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// Notifier sends messages to the ops channel.
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// NewNotifier creates a Slack Notifier. If botToken is empty, the notifier
// is a noop (logging only).
func NewNotifier(botToken, channel string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// IsEnabled returns true if the notifier has a client and a target channel.
func (n *Notifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// ReportDispatchFailure posts a gateway delivery failure to the ops
// channel. Best-effort and non-blocking: the post runs in the background,
// detached from the request context, and a Slack error is only logged, so
// the webhook path can never stall or fail on ops reporting.
func (n *Notifier) ReportDispatchFailure(_ context.Context, accountID, chatID string, cause error) {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping failure report",
			"account_id", accountID,
		)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		blocks := DispatchFailureBlocks(accountID, chatID, cause)
		_, _, err := n.client.PostMessageContext(ctx, n.channel,
			goslack.MsgOptionBlocks(blocks...),
			goslack.MsgOptionText(fmt.Sprintf("🔴 lead delivery failed for account %s", accountID), false),
		)
		if err != nil {
			n.logger.Error("posting dispatch failure to slack", "error", err, "account_id", accountID)
			return
		}

		n.logger.Info("dispatch failure reported to slack", "account_id", accountID)
	}()
}

// PostNotice posts a plain text message to the ops channel.
func (n *Notifier) PostNotice(ctx context.Context, text string) error {
	if !n.IsEnabled() {
		return nil
	}

	_, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting notice to slack: %w", err)
	}
	return nil
}

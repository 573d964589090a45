package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Gateway delivers a rendered message to a channel identifier. The gateway
// is an opaque external collaborator; delivery to the messaging network,
// timeouts, and any retry policy are its business, not this service's.
type Gateway interface {
	Send(ctx context.Context, chatID, message string) error
}

// HTTPGateway posts messages to an outbound webhook (an n8n-style flow that
// relays to WhatsApp).
type HTTPGateway struct {
	url        string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPGateway creates a gateway client for the given webhook URL. The
// token, when set, is sent as a bearer credential.
func NewHTTPGateway(url, token string, logger *slog.Logger) *HTTPGateway {
	return &HTTPGateway{
		url:        url,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// Send posts {chat_id, message} to the gateway webhook. Fire-and-forget:
// a non-2xx response is an error for the caller to report, never to retry.
func (g *HTTPGateway) Send(ctx context.Context, chatID, message string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("encoding gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling messaging gateway: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("messaging gateway returned status %d", resp.StatusCode)
	}

	g.logger.Debug("message handed to gateway", "chat_id", chatID)
	return nil
}

// NoopGateway logs instead of delivering. Used when GATEWAY_URL is unset
// (local development) so the rest of the pipeline stays exercisable.
type NoopGateway struct {
	Logger *slog.Logger
}

// Send logs the would-be delivery and reports success.
func (n *NoopGateway) Send(_ context.Context, chatID, message string) error {
	n.Logger.Info("noop gateway: message delivery simulated",
		"chat_id", chatID,
		"message_len", len(message),
	)
	return nil
}

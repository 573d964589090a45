// Package notification owns the per-account notification configuration:
// where lead alerts are delivered (the WhatsApp channel identifier) and the
// message template used to render them.
//
// Exactly one config exists per account. The account id doubles as the
// webhook capability token (secret_token): possession of the value alone
// authorizes triggering a dispatch, so the URL containing it must be treated
// as a secret. Rotation is not currently modeled.
package notification

import "time"

// Config is the notification configuration record for one account.
type Config struct {
	// SecretToken is the owning account's identity-provider id. It is the
	// storage key and the inbound webhook's path token.
	SecretToken string

	// ChatID is the canonical WhatsApp channel identifier ("...@c.us").
	// Never empty when the record exists.
	ChatID string

	// Template is the user-editable message template with {{name}} and
	// {{tel}} placeholders. Empty means "use the built-in default".
	Template string

	UpdatedAt time.Time
}

// SettingsResponse is the JSON shape for GET /settings/notifications.
type SettingsResponse struct {
	// Phone is the display form of ChatID with the channel suffix stripped.
	Phone      string `json:"phone"`
	Template   string `json:"template"`
	WebhookURL string `json:"webhook_url"`
	Configured bool   `json:"configured"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// UpdateRequest is the payload for PUT /settings/notifications.
type UpdateRequest struct {
	Phone    string `json:"phone" validate:"required,max=32"`
	Template string `json:"template" validate:"required,max=2048"`
}

// Package identity talks to the external identity provider. The provider
// owns accounts, credentials, and MFA factors; this service only reads
// account data and orchestrates factor challenges.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// User is an account as reported by the identity provider.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	// Metadata carries free-form signup metadata. A "phone" key, when
	// present, seeds the account's notification config.
	Metadata map[string]string `json:"user_metadata"`
}

// SignupPhone returns the phone number captured at signup, or "".
func (u *User) SignupPhone() string {
	if u == nil {
		return ""
	}
	return u.Metadata["phone"]
}

// Factor is one enrolled TOTP authenticator.
type Factor struct {
	ID           string    `json:"id"`
	FriendlyName string    `json:"friendly_name"`
	Status       string    `json:"status"` // "verified" or "unverified"
	CreatedAt    time.Time `json:"created_at"`
}

// Challenge is a single-use proof request issued for a factor.
type Challenge struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Enrollment is the provisioning payload returned when a factor is enrolled.
// The user scans the QR (or enters the secret) and proves possession with a
// first code before the factor becomes active.
type Enrollment struct {
	FactorID string `json:"id"`
	Secret   string `json:"secret"`
	QRCode   string `json:"qr_code"` // otpauth:// URI rendered by the client
}

// Provider is the identity collaborator surface consumed by the core.
type Provider interface {
	GetUser(ctx context.Context, accountID string) (*User, error)
	ListFactors(ctx context.Context, accountID string) ([]Factor, error)
	CreateChallenge(ctx context.Context, accountID, factorID string) (*Challenge, error)
	VerifyChallenge(ctx context.Context, accountID, factorID, challengeID, code string) error
	EnrollFactor(ctx context.Context, accountID, friendlyName string) (*Enrollment, error)
	DeleteFactor(ctx context.Context, accountID, factorID string) error
	UpdatePassword(ctx context.Context, accountID, newPassword string) error
	DeleteUser(ctx context.Context, accountID string) error
}

// Error is a provider failure. Message carries the provider's error text
// verbatim so callers can surface it unchanged.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity provider: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a provider 404.
func IsNotFound(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Status == 404
}

// Package auth authenticates API callers against the external identity
// provider and carries the resulting Identity in the request context.
//
// The service holds no credentials of its own: tokens are minted by the
// identity provider and verified here via OIDC discovery.
package auth

import (
	"context"
)

// Method identifies how a request was authenticated.
const (
	MethodOIDC = "oidc"
	MethodDev  = "dev"
)

// Identity describes the authenticated account for a request.
type Identity struct {
	// AccountID is the identity provider's stable account identifier.
	// It doubles as the notification config key and webhook capability token.
	AccountID string

	Email  string
	Method string
}

type contextKey struct{}

// NewContext returns a context carrying the identity.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity from the context, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

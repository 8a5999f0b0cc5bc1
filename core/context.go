package core

import "context"

// Identity is the verified caller. It is only ever produced by a successful
// verification of signature and claims.
type Identity struct {
	// UID is the token subject.
	UID string `json:"uid"`

	// Email is empty when the token carries none.
	Email string `json:"email,omitempty"`
}

// HasEmail reports whether the credential carried an email claim.
func (i *Identity) HasEmail() bool {
	return i.Email != ""
}

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	identityKey contextKey = iota
)

// WithIdentity stores the identity in the context.
// This is a helper for adapters to call after validation.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity retrieves the identity from the context.
func GetIdentity(ctx context.Context) (*Identity, error) {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok || id == nil {
		return nil, ErrIdentityNotFound
	}
	return id, nil
}

// HasIdentity checks if an identity exists in the context without retrieving it.
func HasIdentity(ctx context.Context) bool {
	_, err := GetIdentity(ctx)
	return err == nil
}

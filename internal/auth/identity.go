package auth

import (
	"context"
	"time"
)

// Identity is the authenticated account behind a request.
type Identity struct {
	UserID    int64
	Login     string
	Name      string
	SessionID string
	ExpiresAt time.Time
}

// Identity extracts the request identity from validated claims.
func (c *Claims) Identity() *Identity {
	id := &Identity{
		UserID:    c.UserID,
		Login:     c.Login,
		Name:      c.Name,
		SessionID: c.ID,
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "currentUser"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// CurrentUser is the authenticated caller as resolved from the access token.
type CurrentUser struct {
	ID    int64
	Email string
	Role  string
}

func (u *CurrentUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func UserFromContext(ctx context.Context) (*CurrentUser, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ContextUserKey).(*CurrentUser)
	return user, ok && user != nil
}

func ContextWithUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

package middleware

import "context"

type ctxKey string

const (
	ctxUserID   ctxKey = "user_id"
	ctxUsername ctxKey = "username"
	ctxRole     ctxKey = "role"
)

func WithUser(ctx context.Context, userID, username, role string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxUsername, username)
	ctx = context.WithValue(ctx, ctxRole, role)
	return ctx
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxUserID).(string)
	return v, ok && v != ""
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxRole).(string)
	return v, ok && v != ""
}

// Actor names the caller in audit lines; falls back to the user id.
func Actor(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUsername).(string); ok && v != "" {
		return v
	}
	if v, ok := UserIDFromContext(ctx); ok {
		return v
	}
	return "anonymous"
}

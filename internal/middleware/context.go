package middleware

import "context"

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyVisitorID ctxKey = "visitor_id"
	ctxKeyIsHTMX    ctxKey = "is_htmx"
)

// WithVisitorID stores the visitor identifier in context.
func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyVisitorID, id)
}

// VisitorID returns the visitor identifier, if any.
func VisitorID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyVisitorID).(string)
	return v
}

// WithHTMX marks the request as htmx-originated.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX reports whether this request came from htmx.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

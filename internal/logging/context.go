package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ctxKey identifies a correlation value stored on a context.
type ctxKey uint8

const (
	sessionKey ctxKey = iota
	userKey
	requestKey
)

// correlation lists the context values copied onto every entry, in order.
var correlation = []struct {
	key   ctxKey
	field string
}{
	{sessionKey, "session.id"},
	{userKey, "user.id"},
	{requestKey, "request.id"},
}

// ContextFields returns trace/span ids and any correlation ids found on ctx.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	for _, c := range correlation {
		if v := value(ctx, c.key); v != "" {
			fields = append(fields, zap.String(c.field, v))
		}
	}
	return fields
}

func with(ctx context.Context, k ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

func value(ctx context.Context, k ctxKey) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// WithSessionID tags ctx with a coaching session id. Empty ids are ignored,
// as for the other With helpers.
func WithSessionID(ctx context.Context, id string) context.Context { return with(ctx, sessionKey, id) }

func WithUserID(ctx context.Context, id string) context.Context { return with(ctx, userKey, id) }

func WithRequestID(ctx context.Context, id string) context.Context { return with(ctx, requestKey, id) }

func SessionIDFromContext(ctx context.Context) string { return value(ctx, sessionKey) }

func UserIDFromContext(ctx context.Context) string { return value(ctx, userKey) }

// RequestIDFromContext returns the HTTP request id set by the API middleware.
func RequestIDFromContext(ctx context.Context) string { return value(ctx, requestKey) }

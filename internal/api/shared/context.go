package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ContextKey is the type of request-scoped values set by middleware.
type ContextKey string

// Context keys for request-scoped values.
const (
	// UserIDContextKey holds the authenticated user's ID.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey holds the correlation ID echoed in error responses.
	TraceIDKey ContextKey = "traceID"

	// CronCallerKey marks a request authenticated with the scheduler secret
	// rather than a user token.
	CronCallerKey ContextKey = "cronCaller"
)

// SetTraceID stores a trace ID in the context. When an OpenTelemetry span is
// active its trace ID is reused so logs and spans correlate.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceIDFor(ctx))
}

// GetTraceID returns the trace ID, or "" when none was set.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

func traceIDFor(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
		binary.BigEndian.PutUint64(b[8:], uint64(time.Now().Unix()))
	}
	return hex.EncodeToString(b[:])
}

// WithUserID returns a context carrying the authenticated user's ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user's ID. The nil UUID is
// reported as absent.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// WithCronCaller marks the context as authenticated by the scheduler secret.
func WithCronCaller(ctx context.Context) context.Context {
	return context.WithValue(ctx, CronCallerKey, true)
}

// IsCronCaller reports whether WithCronCaller marked the context.
func IsCronCaller(ctx context.Context) bool {
	v, _ := ctx.Value(CronCallerKey).(bool)
	return v
}

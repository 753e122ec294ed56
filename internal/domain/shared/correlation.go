package shared

import "context"

type correlationKey struct{}

// WithCorrelationID stores the request's correlation id so it reaches the events a request produces
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationIDFromContext returns the stored correlation id, or "" when there is none
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

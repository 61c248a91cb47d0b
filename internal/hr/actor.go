package hr

import "context"

// SystemActor is recorded when no acting user is attached to the context.
const SystemActor = "system"

type actorKey struct{}

// WithActor returns a context carrying the username of the acting user.
// Every mutation stamps createdBy/updatedBy and the audit entry user from it.
func WithActor(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, actorKey{}, username)
}

// ActorFrom returns the acting username stored in ctx, or SystemActor.
func ActorFrom(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return SystemActor
}

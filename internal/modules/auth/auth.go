package auth

import "context"

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// Actor is the authenticated identity attached to every request. The
// fulfillment core trusts that role checks happened at this layer and
// records the actor on Activity rows for audit.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// System is the actor recorded for transitions the platform performs on
// its own, such as demo-mode order synthesis.
var System = Actor{ID: "system", Name: "system", Role: "staff"}

type contextKey struct{}

// WithActor returns ctx carrying the given actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// ActorFromContext returns the actor on ctx, or an anonymous actor when
// the request carried no valid token.
func ActorFromContext(ctx context.Context) Actor {
	if a, ok := ctx.Value(contextKey{}).(Actor); ok {
		return a
	}
	return Actor{ID: "anonymous", Name: "anonymous"}
}

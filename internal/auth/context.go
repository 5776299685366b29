package auth

import "context"

type userContextKey struct{}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(userContextKey{}).(*User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}

// RequireAuthenticated is the authorization gate: it returns the caller's
// identity, or ErrUnauthenticated when the context carries none. Protected
// resolvers call it before touching any repository.
func RequireAuthenticated(ctx context.Context) (*User, error) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

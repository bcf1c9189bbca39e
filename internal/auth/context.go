package auth

import (
	"context"

	"github.com/pictora/pictora/internal/model"
)

type authKey struct{}

// ContextWithAuth stores the resolved session on ctx.
func ContextWithAuth(ctx context.Context, a *model.AuthContext) context.Context {
	return context.WithValue(ctx, authKey{}, a)
}

// AuthFromContext returns the session stored by the Auth middleware, or nil
// on public routes.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	a, _ := ctx.Value(authKey{}).(*model.AuthContext)
	return a
}

// AccountIDFromContext returns the signed-in account id, or "".
func AccountIDFromContext(ctx context.Context) string {
	if a := AuthFromContext(ctx); a != nil {
		return a.AccountID
	}
	return ""
}

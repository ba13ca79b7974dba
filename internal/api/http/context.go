package http

import (
	"context"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/security"
)

type contextKey int

const claimsKey contextKey = iota

func contextWithClaims(ctx context.Context, claims *security.UserClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the verified token claims of the caller.
func ClaimsFromContext(ctx context.Context) (*security.UserClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(*security.UserClaims)
	return claims, ok && claims != nil
}

// ActorFromContext returns the authenticated caller. The zero Actor and false
// are returned on public routes.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return domain.Actor{}, false
	}
	return claims.Actor(), true
}

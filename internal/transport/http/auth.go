package http

import (
	"context"
	"net/http"

	"github.com/srthuanan/stockhold/internal/domain"
)

type contextKey string

const actorContextKey contextKey = "actor"

// TokenVerifier turns a bearer token into a request-scoped actor.
type TokenVerifier interface {
	VerifyToken(token string) (domain.Actor, error)
}

// RequireAuth rejects requests without a valid bearer token and puts the
// resulting actor in the request context for the handlers behind it.
func RequireAuth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "authorization header required")
			return
		}

		actor, err := verifier.VerifyToken(header)
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atelierline/artmarket-backend/api/responses"
	pkgAuth "github.com/atelierline/artmarket-backend/pkg/auth"
	"github.com/atelierline/artmarket-backend/pkg/config"
	pkgerrors "github.com/atelierline/artmarket-backend/pkg/errors"
	"github.com/atelierline/artmarket-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
// When required is false, requests without credentials pass through as
// anonymous; a present-but-invalid token is still rejected.
func Auth(cfg config.JWTConfig, required bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxBuyerID, claims.BuyerID.String())
			if claims.Email != "" {
				ctx = context.WithValue(ctx, ctxBuyerEmail, claims.Email)
			}

			if logg != nil {
				ctx = logg.WithBuyerID(ctx, claims.BuyerID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nileshbarai/distrokhata-backend/api/responses"
	pkgauth "github.com/nileshbarai/distrokhata-backend/pkg/auth"
	"github.com/nileshbarai/distrokhata-backend/pkg/config"
	pkgerrors "github.com/nileshbarai/distrokhata-backend/pkg/errors"
	"github.com/nileshbarai/distrokhata-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// resolved identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
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

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			identity := pkgauth.IdentityFromClaims(claims)
			if identity.UserID <= 0 || !identity.Role.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token"))
				return
			}

			ctx := WithIdentity(r.Context(), identity)
			if logg != nil {
				ctx = logg.WithUserID(ctx, strconv.FormatInt(identity.UserID, 10))
				ctx = logg.WithActorRole(ctx, identity.Role.String())
				if identity.TenantID != nil {
					ctx = logg.WithTenantID(ctx, strconv.FormatInt(*identity.TenantID, 10))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

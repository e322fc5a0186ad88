package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/groupwork-api/internal/api/shared"
	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"github.com/phrazzld/groupwork-api/internal/service/auth"
)

// AuthMiddleware authenticates requests with a JWT, or with the scheduler's
// shared secret on routes that allow it.
type AuthMiddleware struct {
	jwtService auth.JWTService
	cronSecret string
}

// NewAuthMiddleware creates an AuthMiddleware. An empty cronSecret disables
// secret-based access.
func NewAuthMiddleware(jwtService auth.JWTService, cronSecret string) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		cronSecret: cronSecret,
	}
}

// Authenticate requires a valid user token and stores its user ID in the
// request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}
		m.serveWithUser(w, r, token, next)
	})
}

// AuthenticateOrCron accepts the scheduler secret in place of a user token.
func (m *AuthMiddleware) AuthenticateOrCron(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}
		if m.cronSecret != "" && subtle.ConstantTimeCompare([]byte(token), []byte(m.cronSecret)) == 1 {
			next.ServeHTTP(w, r.WithContext(shared.WithCronCaller(r.Context())))
			return
		}
		m.serveWithUser(w, r, token, next)
	})
}

func (m *AuthMiddleware) serveWithUser(w http.ResponseWriter, r *http.Request, token string, next http.Handler) {
	claims, err := m.jwtService.ValidateToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrExpiredToken):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrTokenNotYetValid),
			errors.Is(err, auth.ErrMissingToken):
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid token", err,
				shared.WithElevatedLogLevel())
		default:
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
		}
		return
	}

	ctx := shared.WithUserID(r.Context(), claims.UserID)
	log := logger.FromContextOrDefault(ctx, slog.Default()).
		With(slog.String("user_id", claims.UserID.String()))
	next.ServeHTTP(w, r.WithContext(logger.WithLogger(ctx, log)))
}

// bearerToken extracts the token from "Authorization: Bearer <token>" and
// writes a 401 when the header is missing or malformed.
func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
		return "", false
	}
	return token, true
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pamazon/internal/domain"
	"pamazon/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const IdentityKey contextKey = "identity"

var (
	errMissingHeader = errors.New("missing authorization header")
	errHeaderFormat  = errors.New("invalid authorization header format")
	errTokenExpired  = errors.New("token expired")
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid token claims")
)

// TokenValidator verifies an access token and returns its claims.
// service.UserService satisfies it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates JWT access tokens and resolves the session
// identity, including the admin flag, once per request.
func AuthMiddleware(tokens TokenValidator, policy service.AdminPolicy, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolveIdentity(r, tokens, policy)
			if err != nil {
				logger.Debug("Authentication failed", zap.Error(err), zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", identity.UserID.String()),
				zap.Bool("is_admin", identity.IsAdmin),
			)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuthMiddleware lets anonymous requests through without an
// identity. A request that does present a token must present a valid one.
func OptionalAuthMiddleware(tokens TokenValidator, policy service.AdminPolicy, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolveIdentity(r, tokens, policy)
			switch {
			case errors.Is(err, errMissingHeader):
				next.ServeHTTP(w, r)
			case err != nil:
				logger.Debug("Authentication failed", zap.Error(err), zap.String("path", r.URL.Path))
				RespondWithError(w, http.StatusUnauthorized, err.Error())
			default:
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
			}
		})
	}
}

func resolveIdentity(r *http.Request, tokens TokenValidator, policy service.AdminPolicy) (domain.Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return domain.Identity{}, errMissingHeader
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return domain.Identity{}, errHeaderFormat
	}

	claims, err := tokens.ValidateToken(parts[1])
	if err != nil {
		if errors.Is(err, service.ErrTokenExpired) {
			return domain.Identity{}, errTokenExpired
		}
		return domain.Identity{}, errInvalidToken
	}
	if claims.UserID == uuid.Nil || claims.Email == "" {
		return domain.Identity{}, errInvalidClaims
	}

	return domain.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		IsAdmin: policy.IsAdmin(claims.Email),
	}, nil
}

// WithIdentity stores the session identity on ctx
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// GetIdentity extracts the session identity from request context
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// GetUserID extracts the user ID from request context
func GetUserID(ctx context.Context) (string, bool) {
	identity, ok := GetIdentity(ctx)
	if !ok {
		return "", false
	}
	return identity.UserID.String(), true
}

package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "foodgram/internal/errors"
)

const (
	tokenContextKey  = "jwt"
	userIDContextKey = "user_id"
	claimsContextKey = "claims"
)

// Middleware resolves the current user from an access token.
type Middleware struct {
	jwtService *JWTService
	tokenStore TokenStoreInterface
}

// NewMiddleware creates the auth middleware set.
func NewMiddleware(jwtService *JWTService, tokenStore TokenStoreInterface) *Middleware {
	return &Middleware{jwtService: jwtService, tokenStore: tokenStore}
}

// Authenticate parses the access token when present. Requests without a
// token continue anonymously; a malformed, expired or revoked token is
// rejected with 401.
func (m *Middleware) Authenticate() echo.MiddlewareFunc {
	parse := echojwt.WithConfig(echojwt.Config{
		SigningKey:  m.jwtService.Secret(),
		ContextKey:  tokenContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ,header:" + echo.HeaderAuthorization + ":Token ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		ContinueOnIgnoredError: true,
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				return nil
			}
			return invalidToken()
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return parse(func(c echo.Context) error {
			token, ok := c.Get(tokenContextKey).(*jwt.Token)
			if !ok {
				return next(c)
			}
			claims, ok := token.Claims.(*Claims)
			if !ok || !claims.IsAccess() || claims.UserID == 0 {
				return invalidToken()
			}
			revoked, _ := m.tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if revoked {
				return invalidToken()
			}
			c.Set(userIDContextKey, claims.UserID)
			c.Set(claimsContextKey, claims)
			return next(c)
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentUserID(c); !ok {
				return apperrors.ErrUnauthenticated
			}
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(userIDContextKey).(uint)
	return id, ok && id != 0
}

// SetCurrentUser marks the request as authenticated as userID.
func SetCurrentUser(c echo.Context, userID uint) {
	c.Set(userIDContextKey, userID)
}

// CurrentClaims returns the access token claims of the request, if any.
func CurrentClaims(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok
}

// RemainingTTL returns how long the token described by claims stays valid.
func RemainingTTL(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

func invalidToken() error {
	return apperrors.NewHTTPError(http.StatusUnauthorized, "invalid or expired token", "INVALID_TOKEN")
}

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	EmployeeIDKey contextKey = "employee_id"
	UserRolesKey  contextKey = "user_roles"
)

// DevEmployeeID is the identity DevAuthMiddleware assigns to anonymous requests.
// The seed migration inserts a matching employee row.
var DevEmployeeID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Claims carries the employee id in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey is used for development/testing only
	SigningKey []byte
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	var keyFunc jwt.Keyfunc
	if len(cfg.SigningKey) > 0 {
		keyFunc = func(t *jwt.Token) (interface{}, error) {
			return cfg.SigningKey, nil
		}
	} else {
		jwksURL := cfg.JWKSURL
		if jwksURL == "" && cfg.Issuer != "" {
			if discovered, err := DiscoverJWKSURL(cfg.Issuer); err == nil {
				jwksURL = discovered
			}
		}
		keyFunc = NewJWKSCache(jwksURL, defaultJWKSCacheTTL).KeyFunc()
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			employeeID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "token subject is not an employee id")
			}

			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), employeeID, claims.Roles)))
			return next(c)
		}
	}
}

// DevAuthMiddleware lets unauthenticated requests through as the dev admin.
// Requests that carry a bearer token are validated with signingKey instead.
func DevAuthMiddleware(signingKey []byte) echo.MiddlewareFunc {
	jwtMW := JWTMiddleware(JWTConfig{SigningKey: signingKey})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withToken := jwtMW(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" && len(signingKey) > 0 {
				return withToken(c)
			}
			ctx := WithIdentity(c.Request().Context(), DevEmployeeID, []string{RoleAdmin})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// WithIdentity stores the caller's employee id and roles on ctx.
func WithIdentity(ctx context.Context, employeeID uuid.UUID, roles []string) context.Context {
	ctx = context.WithValue(ctx, EmployeeIDKey, employeeID)
	return context.WithValue(ctx, UserRolesKey, roles)
}

// EmployeeIDFromContext returns the authenticated employee id.
func EmployeeIDFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(EmployeeIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no authenticated employee in context")
	}
	return id, nil
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

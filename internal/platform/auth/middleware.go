package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	DoctorIDKey   contextKey = "doctor_id"
	DoctorNameKey contextKey = "doctor_name"
)

// Claims carries the doctor identity embedded in access tokens.
type Claims struct {
	jwt.RegisteredClaims
	DoctorName string `json:"doctor_name"`
}

type JWTConfig struct {
	SigningKey []byte
}

// JWTMiddleware validates HS256 bearer tokens and stores the doctor identity
// on the request context. The token subject must be the doctor UUID.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			doctorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, DoctorIDKey, doctorID)
			ctx = context.WithValue(ctx, DoctorNameKey, claims.DoctorName)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development that allows
// unauthenticated requests with a fixed doctor identity. Requests carrying a
// token still pass through JWTMiddleware validation.
func DevAuthMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	jwtMW := JWTMiddleware(cfg)
	devDoctorID := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				ctx := c.Request().Context()
				ctx = context.WithValue(ctx, DoctorIDKey, devDoctorID)
				ctx = context.WithValue(ctx, DoctorNameKey, "Dev Doctor")
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
			return jwtMW(next)(c)
		}
	}
}

func DoctorIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(DoctorIDKey).(uuid.UUID)
	return id
}

func DoctorNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(DoctorNameKey).(string)
	return name
}

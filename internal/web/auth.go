package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"KrishiMitra/internal/logger"
)

const clientIDKey contextKey = "client_id"

const tokenIssuer = "krishimitra"

// ClientClaims identify one browser installation. The subject is the
// client id that scopes its language store.
type ClientClaims struct {
	jwt.RegisteredClaims
}

// IssueToken signs a client token valid for ttl.
func IssueToken(secret, clientID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := ClientClaims{jwt.RegisteredClaims{
		Subject:   clientID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseToken validates tokenStr and returns its client id.
func ParseToken(secret, tokenStr string) (string, error) {
	var claims ClientClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// TokenFromRequest reads a bearer token, falling back to the token query
// parameter used by EventSource and WebSocket clients.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// AuthMiddleware requires a valid client token outside skipPaths.
func AuthMiddleware(secret string, skipPaths []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") || skipped(r.URL.Path, skipPaths) {
				next.ServeHTTP(w, r)
				return
			}
			clientID, err := ParseToken(secret, TokenFromRequest(r))
			if err != nil {
				logger.HTTP.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected client token")
				FailErr(w, r, ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, WithClientID(r, clientID))
		})
	}
}

func skipped(path string, skipPaths []string) bool {
	for _, p := range skipPaths {
		if path == p {
			return true
		}
	}
	return false
}

// WithClientID returns r carrying clientID.
func WithClientID(r *http.Request, clientID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), clientIDKey, clientID))
}

func GetClientID(r *http.Request) string {
	id, _ := r.Context().Value(clientIDKey).(string)
	return id
}

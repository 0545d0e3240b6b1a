// Package authmw provides bearer-token authentication for the dispatch
// core's admin HTTP surface, guarding the mutation endpoints (DLQ retry,
// DLQ retry-all) from unauthenticated callers.
package authmw

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cuemby/reflex-dispatch/internal/adminhttp/problemwriter"
)

// AllowedAlgorithm is the only JWT signing method accepted.
const AllowedAlgorithm = "HS256"

// Config holds JWT validation settings for admin-surface auth.
type Config struct {
	Enabled   bool
	Secret    []byte
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Now       func() time.Time
}

type subjectKey struct{}

// Subject returns the validated token subject from ctx, if any.
func Subject(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok
}

// RequireBearer returns middleware that validates an HS256 bearer token
// when cfg.Enabled; it is a no-op pass-through otherwise, since the admin
// surface is internal operator tooling, not a public API.
func RequireBearer(cfg Config) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{AllowedAlgorithm}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Now != nil {
		parserOptions = append(parserOptions, jwt.WithTimeFunc(cfg.Now))
	}
	if cfg.Issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(cfg.Audience))
	}
	if cfg.ClockSkew > 0 {
		parserOptions = append(parserOptions, jwt.WithLeeway(cfg.ClockSkew))
	}
	parser := jwt.NewParser(parserOptions...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeUnauthorized(w)
				return
			}

			claims := jwt.RegisteredClaims{}
			token, err := parser.ParseWithClaims(parts[1], &claims, func(*jwt.Token) (any, error) {
				return cfg.Secret, nil
			})
			if err != nil || !token.Valid || strings.TrimSpace(claims.Subject) == "" {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	problemwriter.Write(w, http.StatusUnauthorized, "Unauthorized", "a valid bearer token is required")
}

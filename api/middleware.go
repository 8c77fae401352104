package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/apperr"
	"github.com/Alpho052/career-guidance-platform/pkg/models"
	"github.com/Alpho052/career-guidance-platform/pkg/repository"
)

type ctxKey string

const ctxIdentity ctxKey = "identity"

// Identity is the authenticated caller resolved from the bearer token.
type Identity struct {
	UserID string
	Role   models.Role
	Email  string
}

// IdentityFrom returns the caller stored by Authenticate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

// package-level logger used by middleware and helpers; can be set via SetLogger from caller
var logger = zap.NewNop()

// SetLogger installs a logger for the api package. Passing nil is a no-op.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic",
					zap.Any("err", err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				writeError(w, r, apperr.Internal(fmt.Errorf("panic: %v", err)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

var (
	errNoToken      = apperr.Unauthenticated("Access denied. No token provided.")
	errInvalidToken = apperr.Unauthenticated("Invalid token.")
	errTokenExpired = apperr.Unauthenticated("Token expired.")
	errUnknownUser  = apperr.Unauthenticated("Invalid token. User not found.")
	errForbidden    = apperr.Unauthorized("Access denied. Insufficient permissions.")
)

// Authenticate verifies the bearer token and that its user still exists,
// then stores the caller's Identity in the request context.
func Authenticate(users repository.UserRepo, secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			tokenString = strings.TrimSpace(tokenString)
			if !found || tokenString == "" {
				writeError(w, r, errNoToken)
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}

				return []byte(secret), nil
			})
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				writeError(w, r, errTokenExpired)
				return
			case err != nil || !token.Valid:
				logger.Debug("token rejected", zap.Error(err))
				writeError(w, r, errInvalidToken)
				return
			}

			userID, _ := claims["userId"].(string)
			if userID == "" {
				writeError(w, r, errInvalidToken)
				return
			}

			user, err := users.GetUser(r.Context(), userID)
			if err != nil {
				writeError(w, r, apperr.Internal(fmt.Errorf("load token user %s: %w", userID, err)))
				return
			}
			if user == nil {
				writeError(w, r, errUnknownUser)
				return
			}

			id := Identity{UserID: user.ID, Role: user.Role, Email: user.Email}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// Authorize admits only callers whose role is one of roles. It must run
// after Authenticate.
func Authorize(roles ...models.Role) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				writeError(w, r, errNoToken)
				return
			}
			if !slices.Contains(roles, id.Role) {
				writeError(w, r, errForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

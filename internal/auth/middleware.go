package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// SessionKey is the context key for the session of the request
const SessionKey contextKey = "session"

// LoginPath is where unauthenticated page requests are sent
const LoginPath = "/login"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// SessionFromContext extracts the session from the request context
func SessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(SessionKey).(models.Session)
	return s, ok
}

// Public paths that don't require a session
var publicPaths = map[string]bool{
	"/health":  true,
	LoginPath:  true,
	"/metrics": true,
}

// isPublicPath checks if the given path is public (no session required)
func isPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/static/")
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := ErrorResponse{
		Error: message,
		Code:  code,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SendError writes a JSON error in the shape every /api route uses
func SendError(w http.ResponseWriter, message, code string, statusCode int) {
	sendErrorResponse(w, message, code, statusCode)
}

// sendSessionExpirationWarning adds a warning header when the session expires soon
func sendSessionExpirationWarning(w http.ResponseWriter, claims *Claims) {
	if claims.ExpiresAt == nil || !claims.IsExpiringSoon(time.Hour) {
		return
	}
	w.Header().Set("X-Session-Expires-At", claims.ExpiresAt.Time.Format(time.RFC3339))
}

// Unauthenticated ends the session and sends the client to the login page,
// or answers 401 for /api routes.
func (m *SessionManager) Unauthenticated(w http.ResponseWriter, r *http.Request, code string) {
	m.ClearCookie(w)
	if isAPIPath(r.URL.Path) {
		sendErrorResponse(w, "Authentication required", code, http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// RequireSession checks the session cookie once at route entry and puts the
// session into the request context.
func RequireSession(m *SessionManager, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := m.FromRequest(r)
			if err != nil {
				code := "INVALID_SESSION"
				switch {
				case errors.Is(err, ErrNoSession):
					code = "MISSING_SESSION"
				case errors.Is(err, jwt.ErrTokenExpired):
					code = "SESSION_EXPIRED"
				}
				if code != "MISSING_SESSION" {
					logger.Info("rejected session cookie", zap.String("code", code), zap.Error(err))
				}
				m.Unauthenticated(w, r, code)
				return
			}

			sendSessionExpirationWarning(w, claims)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), claims.Session())))
		})
	}
}

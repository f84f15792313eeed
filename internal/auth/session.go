package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

const issuer = "quintor-catalog-frontend"

var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
)

// Claims represents the signed session cookie
type Claims struct {
	SessionID string `json:"sid"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// IsExpiringSoon reports whether the session expires within d
func (c *Claims) IsExpiringSoon(d time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return time.Until(c.ExpiresAt.Time) <= d
}

// Session returns the session carried by the claims
func (c *Claims) Session() models.Session {
	return models.Session{ID: c.SessionID, Token: c.Token, Email: c.Email}
}

// SessionManager signs the session cookie with HS256
type SessionManager struct {
	secret     string
	cookieName string
	expiry     time.Duration
	secure     bool
}

// NewSessionManager creates a new session manager
func NewSessionManager(secret, cookieName string, expiry time.Duration) *SessionManager {
	return &SessionManager{
		secret:     secret,
		cookieName: cookieName,
		expiry:     expiry,
	}
}

// SetSecure marks the cookie Secure, for deployments behind TLS
func (m *SessionManager) SetSecure(secure bool) {
	m.secure = secure
}

// CookieName returns the name of the session cookie
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// ValidateConfig validates the session manager configuration
func (m *SessionManager) ValidateConfig() error {
	if m.secret == "" {
		return errors.New("session secret cannot be empty")
	}
	if len(m.secret) < 32 {
		return errors.New("session secret must be at least 32 characters long")
	}
	if m.cookieName == "" {
		return errors.New("session cookie name cannot be empty")
	}
	if m.expiry <= 0 {
		return errors.New("session expiry must be positive")
	}
	return nil
}

// Issue signs s. A session without an id gets a fresh one.
func (m *SessionManager) Issue(s models.Session) (string, models.Session, error) {
	if !s.Valid() {
		return "", s, errors.New("session has no backend token")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	now := time.Now()
	claims := &Claims{
		SessionID: s.ID,
		Token:     s.Token,
		Email:     s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   s.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", s, fmt.Errorf("sign session: %w", err)
	}
	return signed, s, nil
}

// Parse validates a cookie value and returns its claims
func (m *SessionManager) Parse(value string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}
	if claims.Token == "" || claims.SessionID == "" {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

// FromRequest reads and validates the session cookie of r
func (m *SessionManager) FromRequest(r *http.Request) (*Claims, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}
	return m.Parse(c.Value)
}

// SetCookie issues s and writes it as the session cookie
func (m *SessionManager) SetCookie(w http.ResponseWriter, s models.Session) (models.Session, error) {
	value, s, err := m.Issue(s)
	if err != nil {
		return s, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.expiry.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// ClearCookie removes the session cookie, ending the session
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Package auth resolves the caller's identity from a bearer JWT and guards
// routes by sign-in, role, ownership and admin key.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/kinshealth/internal/app/system/apperr"
	"github.com/dalemusser/kinshealth/internal/app/system/respond"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminKeyHeader carries the plaintext admin API key.
const AdminKeyHeader = "X-Admin-Key"

// User is the identity carried in the request context. ID is the external
// users.userID, not a Mongo _id.
type User struct {
	ID    string
	Role  string
	Email string
}

// Claims is the token payload. Subject holds the userID.
type Claims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a found flag.
func CurrentUser(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*User)
	return u, ok
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// Manager verifies tokens and the admin key.
type Manager struct {
	secret       []byte
	adminKeyHash []byte
	log          *zap.Logger
}

// NewManager builds a Manager. An empty secret means no token verifies,
// so every protected route answers 401.
func NewManager(jwtSecret, adminKeyHash string, logger *zap.Logger) *Manager {
	if len(jwtSecret) > 0 && len(jwtSecret) < 32 {
		logger.Warn("jwt secret is short; 32+ chars recommended", zap.Int("length", len(jwtSecret)))
	}
	return &Manager{secret: []byte(jwtSecret), adminKeyHash: []byte(adminKeyHash), log: logger}
}

// Issue signs an HS256 token for u. Signup happens upstream; this exists for
// tooling and tests.
func (m *Manager) Issue(u User, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("auth: jwt secret not configured")
	}
	now := time.Now()
	claims := Claims{
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse validates a token and returns its user.
func (m *Manager) Parse(token string) (*User, error) {
	if len(m.secret) == 0 {
		return nil, errors.New("auth: jwt secret not configured")
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("auth: token has no subject")
	}
	return &User{ID: claims.Subject, Role: claims.Role, Email: claims.Email}, nil
}

// LoadUser puts the bearer token's user into the context. Requests without
// a token pass through anonymous; a present but invalid token is rejected.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			respond.Error(w, r, m.log, apperr.Unauthorized("malformed authorization header"), "")
			return
		}
		u, err := m.Parse(strings.TrimSpace(token))
		if err != nil {
			m.log.Debug("rejecting bearer token", zap.Error(err))
			respond.Error(w, r, m.log, apperr.Unauthorized("invalid or expired token"), "")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireSignedIn answers 401 unless LoadUser found a user.
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Error(w, r, m.log, apperr.Unauthorized("sign in required"), "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 for anonymous callers and 403 for other roles.
func (m *Manager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Error(w, r, m.log, apperr.Unauthorized("sign in required"), "")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Error(w, r, m.log, apperr.Forbidden("role not permitted"), "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CheckAdminKey reports whether key matches the configured bcrypt hash.
func (m *Manager) CheckAdminKey(key string) bool {
	if key == "" || len(m.adminKeyHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(m.adminKeyHash, []byte(key)) == nil
}

// RequireAdminKey guards the admin operations. With no hash configured the
// admin surface is closed.
func (m *Manager) RequireAdminKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.CheckAdminKey(r.Header.Get(AdminKeyHeader)) {
			m.log.Warn("admin key rejected", zap.String("path", r.URL.Path))
			respond.Error(w, r, m.log, apperr.Unauthorized("admin key required"), "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsSelf reports whether the caller is userID.
func IsSelf(r *http.Request, userID string) bool {
	u, ok := CurrentUser(r)
	return ok && userID != "" && u.ID == userID
}

// RequireSelf returns nil when the caller is userID, and a classified
// Unauthorized or Forbidden error otherwise.
func RequireSelf(r *http.Request, userID string) error {
	u, ok := CurrentUser(r)
	if !ok {
		return apperr.Unauthorized("sign in required")
	}
	if userID == "" || u.ID != userID {
		return apperr.Forbidden("you can only change your own account")
	}
	return nil
}

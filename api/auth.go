/*
auth.go - Login and bearer-token authentication

PURPOSE:
  Resolves an opaque login (NIK + password) into an authenticated
  overtime.Actor and carries it through requests as a signed JWT.
  Handlers read the actor from the request context; no handler ever
  relies on ambient "current user" state.

TOKENS:
  HS256 JWTs with nik/name/role claims and a 12 hour expiry. The
  signing secret comes from configuration (OVERTIME_JWT_SECRET).
  The claims only identify the session: RequireAuth re-resolves the
  actor from the directory on every request, so a role change or a
  deleted account takes effect immediately instead of at token expiry.

PASSWORDS:
  bcrypt hashes stored on the directory record. Users without a hash
  cannot authenticate.

SEE ALSO:
  - server.go: Middleware wiring
  - handlers.go: Login endpoint
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/overtime-engine/overtime"
)

// TokenAuth signs and verifies session tokens.
type TokenAuth struct {
	Secret []byte
	TTL    time.Duration
}

// NewTokenAuth creates a token authority with the default 12h TTL.
func NewTokenAuth(secret string) *TokenAuth {
	return &TokenAuth{Secret: []byte(secret), TTL: 12 * time.Hour}
}

// Issue signs a token for a directory record.
func (ta *TokenAuth) Issue(u overtime.User) (string, error) {
	claims := jwt.MapClaims{
		"nik":  string(u.NIK),
		"name": u.Name,
		"role": string(u.Role),
		"exp":  time.Now().Add(ta.TTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ta.Secret)
}

// Verify parses a token back into an Actor.
func (ta *TokenAuth) Verify(tokenString string) (overtime.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return ta.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return overtime.Actor{}, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return overtime.Actor{}, errors.New("malformed claims")
	}
	nik, _ := claims["nik"].(string)
	name, _ := claims["name"].(string)
	roleStr, _ := claims["role"].(string)
	role, err := overtime.ParseRole(roleStr)
	if err != nil {
		return overtime.Actor{}, errors.New("malformed role claim")
	}
	if nik == "" {
		return overtime.Actor{}, errors.New("missing nik claim")
	}
	return overtime.Actor{NIK: overtime.NIK(nik), Name: name, Role: role}, nil
}

// HashPassword returns the bcrypt hash to store on a directory record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash against a login attempt.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

type contextKey string

const actorKey contextKey = "actor"

// RequireAuth extracts the bearer token, verifies it, and stores the
// Actor in the request context. The actor's name and role come from the
// current directory record, not the token claims, so a demotion revokes
// decision rights before the token expires.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		claimed, err := h.Auth.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", err)
			return
		}
		user, err := h.Directory.GetByNIK(r.Context(), claimed.NIK)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Account no longer exists", nil)
			return
		}
		actor := overtime.ActorOf(*user)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

// RequireAdmin gates a route group to the admin role. Must run after
// RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actorFrom(r.Context()).Role != overtime.RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin role required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom reads the authenticated actor placed by RequireAuth.
func actorFrom(ctx context.Context) overtime.Actor {
	actor, _ := ctx.Value(actorKey).(overtime.Actor)
	return actor
}

package handlers

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/framelab/annotation-service/internal/models"
	"github.com/framelab/annotation-service/internal/services"
)

const (
	SessionCookie = "user_session"
	sessionMaxAge = 7 * 24 * 60 * 60

	ContextUserID   = "user_id"
	ContextUser     = "user"
	ContextUserRole = "user_role"
)

// SessionConfig controls the user_session cookie.
type SessionConfig struct {
	// Secret keys the cookie signature. Empty means a random key, so
	// sessions do not survive a restart.
	Secret []byte
	Secure bool
}

// SessionAuthMiddleware authenticates requests from the user_session cookie
// set at login. The cookie holds the user as JSON followed by an HMAC-SHA256
// signature; it only names the user and the role is read from the database.
type SessionAuthMiddleware struct {
	auth   services.AuthService
	secret []byte
	secure bool
}

func NewSessionAuthMiddleware(auth services.AuthService, cfg SessionConfig) *SessionAuthMiddleware {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
	}
	return &SessionAuthMiddleware{auth: auth, secret: secret, secure: cfg.Secure}
}

// AuthMiddleware rejects requests without a valid session
func (sam *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := sam.userFromCookie(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "No active session"})
			c.Abort()
			return
		}

		sam.setUser(c, user)
		c.Next()
	}
}

// OptionalAuthMiddleware loads the user when a valid cookie is present
func (sam *SessionAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := sam.userFromCookie(c); err == nil {
			sam.setUser(c, user)
		}
		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role
func (sam *SessionAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get(ContextUserRole)
		if !exists {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "user role not found in context"})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "invalid user role format"})
			c.Abort()
			return
		}

		// admins pass every role check
		if role != models.RoleAdmin && !slices.Contains(requiredRoles, role) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// SetSession writes the session cookie for user
func (sam *SessionAuthMiddleware) SetSession(c *gin.Context, user *models.User) error {
	payload, err := json.Marshal(models.SessionUser{ID: user.ID, DisplayName: user.DisplayName})
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, sam.sign(payload), sessionMaxAge, "/", "", sam.secure, true)
	return nil
}

// ClearSession expires the session cookie
func (sam *SessionAuthMiddleware) ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", sam.secure, true)
}

func (sam *SessionAuthMiddleware) userFromCookie(c *gin.Context) (*models.User, error) {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return nil, services.ErrUnauthorized
	}

	payload, ok := sam.verify(raw)
	if !ok {
		return nil, services.ErrUnauthorized
	}
	var session models.SessionUser
	if err := json.Unmarshal(payload, &session); err != nil || session.ID == 0 {
		return nil, services.ErrUnauthorized
	}

	user, err := sam.auth.GetUser(c.Request.Context(), session.ID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (sam *SessionAuthMiddleware) setUser(c *gin.Context, user *models.User) {
	c.Set(ContextUserID, user.ID)
	c.Set(ContextUser, user)
	c.Set(ContextUserRole, user.Role)
}

// sign returns payload + "." + base64url(HMAC-SHA256(payload)).
func (sam *SessionAuthMiddleware) sign(payload []byte) string {
	return string(payload) + "." + base64.RawURLEncoding.EncodeToString(sam.mac(payload))
}

// verify splits a signed cookie value and returns the payload when the
// signature matches. The signature alphabet has no '.', so the last one
// separates it from the JSON.
func (sam *SessionAuthMiddleware) verify(value string) ([]byte, bool) {
	i := strings.LastIndexByte(value, '.')
	if i < 0 {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(value[i+1:])
	if err != nil {
		return nil, false
	}
	payload := []byte(value[:i])
	if !hmac.Equal(sig, sam.mac(payload)) {
		return nil, false
	}
	return payload, true
}

func (sam *SessionAuthMiddleware) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, sam.secret)
	h.Write(payload)
	return h.Sum(nil)
}

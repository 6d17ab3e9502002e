package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/travelgo/travelgo/internal/apperr"
	"github.com/travelgo/travelgo/internal/domain/entity"
	"github.com/travelgo/travelgo/internal/domain/repository"
	"github.com/travelgo/travelgo/pkg/helpers"
)

// Context keys set by Protect for downstream handlers.
const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "currentUser"
	CtxRoleKey   = "userRole"
)

// CurrentUser returns the authenticated user placed in the context by Protect.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok
}

func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if tok, err := c.Cookie("access_token"); err == nil {
		return tok
	}
	return ""
}

// Protect requires a valid access token and a still-active account.
// Tokens issued before the user's last password change are rejected.
func Protect(jwt *helpers.JWTManager, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			_ = c.Error(apperr.New("You are not logged in! Please log in to get access.", http.StatusUnauthorized))
			c.Abort()
			return
		}

		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				_ = c.Error(apperr.New("The user belonging to this token does no longer exist.", http.StatusUnauthorized))
			} else {
				_ = c.Error(err)
			}
			c.Abort()
			return
		}

		if user.ChangedPasswordAfter(claims.IssuedAtUnix()) {
			_ = c.Error(apperr.New("User recently changed password! Please log in again.", http.StatusUnauthorized))
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)
		c.Set(CtxRoleKey, string(user.Role))
		c.Next()
	}
}

// RestrictTo allows only the given roles past. Must run after Protect.
func RestrictTo(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := entity.Role(c.GetString(CtxRoleKey))
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		_ = c.Error(apperr.New("You do not have permission to perform this action", http.StatusForbidden))
		c.Abort()
	}
}

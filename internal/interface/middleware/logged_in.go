package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/travelgo/travelgo/internal/domain/repository"
	"github.com/travelgo/travelgo/pkg/helpers"
)

// IsLoggedIn resolves the current user for rendered pages without ever
// failing the request. Pages render for anonymous visitors too.
func IsLoggedIn(jwt *helpers.JWTManager, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("access_token")
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.Next()
			return
		}
		if user.ChangedPasswordAfter(claims.IssuedAtUnix()) {
			c.Next()
			return
		}

		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxUserKey, user)
		c.Set(CtxRoleKey, string(user.Role))
		c.Next()
	}
}

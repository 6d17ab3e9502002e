package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/travelgo/travelgo/internal/container"
	"github.com/travelgo/travelgo/internal/domain/entity"
	"github.com/travelgo/travelgo/internal/domain/repository"
	handlers "github.com/travelgo/travelgo/internal/interface/http"
	"github.com/travelgo/travelgo/internal/interface/middleware"
)

// UserModule wires the account and credential routes.
// Public: signup, login, logout, refresh, forgotPassword, resetPassword.
// Protected: updateMyPassword, me, updateMe, deleteMe, photo upload.
// Admin: user search and lookup.
type UserModule struct {
	Handler *handlers.UserHandler
	Repo    repository.UserRepository
}

func NewUserModule(h *handlers.UserHandler, repo repository.UserRepository) *UserModule {
	return &UserModule{Handler: h, Repo: repo}
}

func (m *UserModule) Register(api, web *gin.RouterGroup) {
	rdb := container.GetRedis()

	signupLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)
	forgotLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	resetLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	api.POST("/users/signup", signupLimiter, m.Handler.SignUp)
	api.POST("/users/login", loginLimiter, m.Handler.Login)
	api.POST("/users/logout", m.Handler.Logout)
	api.POST("/users/refresh", refreshLimiter, m.Handler.Refresh)
	api.POST("/users/forgotPassword", forgotLimiter, m.Handler.ForgotPassword)
	api.PATCH("/users/resetPassword/:token", resetLimiter, m.Handler.ResetPassword)

	auth := api.Group("/")
	auth.Use(middleware.Protect(container.GetJWT(), m.Repo))
	auth.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.PATCH("/users/updateMyPassword", m.Handler.UpdateMyPassword)
		auth.GET("/users/me", m.Handler.Me)
		auth.PATCH("/users/updateMe", m.Handler.UpdateMe)
		auth.POST("/users/me/photo", m.Handler.UploadPhoto)
		auth.DELETE("/users/deleteMe", m.Handler.DeleteMe)

		admin := auth.Group("/", middleware.RestrictTo(entity.RoleAdmin))
		admin.GET("/users/search", m.Handler.Search)
		admin.GET("/users/:id", m.Handler.GetUser)
	}
}

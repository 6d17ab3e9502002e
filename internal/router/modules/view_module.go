package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/travelgo/travelgo/internal/container"
	"github.com/travelgo/travelgo/internal/domain/repository"
	handlers "github.com/travelgo/travelgo/internal/interface/http"
	"github.com/travelgo/travelgo/internal/interface/middleware"
)

// ViewModule wires the server-rendered pages.
type ViewModule struct {
	Handler *handlers.ViewHandler
	Repo    repository.UserRepository
}

func NewViewModule(h *handlers.ViewHandler, repo repository.UserRepository) *ViewModule {
	return &ViewModule{Handler: h, Repo: repo}
}

func (m *ViewModule) Register(api, web *gin.RouterGroup) {
	jwt := container.GetJWT()

	pages := web.Group("/", middleware.IsLoggedIn(jwt, m.Repo))
	pages.GET("/", m.Handler.Overview)
	pages.GET("/login", m.Handler.LoginForm)
	pages.GET("/signup", m.Handler.SignupForm)

	account := web.Group("/", middleware.Protect(jwt, m.Repo))
	account.GET("/me", m.Handler.Account)
}

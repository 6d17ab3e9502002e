package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	userapp "github.com/travelgo/travelgo/internal/application"
	"github.com/travelgo/travelgo/internal/interface/middleware"
)

// ViewHandler serves the server-rendered pages.
type ViewHandler struct {
	Svc *userapp.Service
}

func NewViewHandler(svc *userapp.Service) *ViewHandler {
	return &ViewHandler{Svc: svc}
}

func pageData(c *gin.Context, title string) gin.H {
	data := gin.H{"title": title}
	if u, ok := middleware.CurrentUser(c); ok {
		data["user"] = u
	}
	return data
}

func (h *ViewHandler) Overview(c *gin.Context) {
	c.HTML(http.StatusOK, "overview.html", pageData(c, "All Tours"))
}

func (h *ViewHandler) LoginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", pageData(c, "Log into your account"))
}

func (h *ViewHandler) SignupForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", pageData(c, "Create your account"))
}

func (h *ViewHandler) Account(c *gin.Context) {
	c.HTML(http.StatusOK, "account.html", pageData(c, "Your account"))
}

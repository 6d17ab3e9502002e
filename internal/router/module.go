package router

import "github.com/gin-gonic/gin"

// Module describes a feature module that can register its routes.
// API routes go under the configured prefix, web routes at the root.
type Module interface {
	Register(api, web *gin.RouterGroup)
}

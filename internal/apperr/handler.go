package apperr

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const errorTemplate = "error.html"

// Handler is the single terminal exit path for request failures. It decides
// the response shape from two inputs only: the deployment environment it was
// constructed with, and whether the request targets the API path prefix.
type Handler struct {
	env       string
	apiPrefix string
	logger    *logrus.Logger
}

func NewHandler(env, apiPrefix string, logger *logrus.Logger) *Handler {
	return &Handler{env: env, apiPrefix: apiPrefix, logger: logger}
}

// Middleware recovers the last error recorded on the context after the chain
// has run and writes the response for it. Handlers report failures with
// c.Error(err) and abort; nothing else in the pipeline formats error output.
func (h *Handler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		h.Respond(c, last.Err)
	}
}

// Respond writes the environment- and channel-appropriate response for err.
func (h *Handler) Respond(c *gin.Context, err error) {
	if h.env == "development" {
		h.respondDev(c, err)
		return
	}
	h.respondProd(c, Normalize(err))
}

func (h *Handler) isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, h.apiPrefix)
}

func (h *Handler) respondDev(c *gin.Context, err error) {
	e := Normalize(err)
	if h.isAPI(c) {
		c.JSON(e.Code, gin.H{
			"status":  e.Status,
			"message": e.Message,
			"error":   err.Error(),
			"stack":   e.Stack,
		})
		return
	}
	h.logger.WithError(err).Error("request failed")
	c.HTML(e.Code, errorTemplate, gin.H{
		"title": "Something went wrong!",
		"msg":   e.Message,
	})
}

func (h *Handler) respondProd(c *gin.Context, e *Error) {
	if h.isAPI(c) {
		if e.Operational {
			c.JSON(e.Code, gin.H{
				"status":  e.Status,
				"message": e.Message,
			})
			return
		}
		// Unknown failure: log it, never leak its message.
		h.logger.WithError(e.Err).WithField("path", c.Request.URL.Path).Error("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "OOPS! Something looks wrong!",
		})
		return
	}

	if e.Operational {
		c.HTML(e.Code, errorTemplate, gin.H{
			"title": "OOPS! Something looks wrong!",
			"msg":   e.Message,
		})
		return
	}
	h.logger.WithError(e.Err).WithField("path", c.Request.URL.Path).Error("unexpected error")
	c.HTML(http.StatusInternalServerError, errorTemplate, gin.H{
		"title": "OOPS! Something looks wrong!",
		"msg":   "Please try again later.",
	})
}

package apperr

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("error.html").Parse(
		`<h2>{{.title}}</h2><p>{{.msg}}</p>`,
	)))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewHandler(env, "/api", logger)
	r.Use(h.Middleware())
	return r
}

func do(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandler_DevAPIIncludesStack(t *testing.T) {
	r := newTestEngine("development")
	r.GET("/api/boom", func(c *gin.Context) {
		_ = c.Error(New("No user found with that ID", http.StatusNotFound))
		c.Abort()
	})

	w := do(r, "/api/boom")
	require.Equal(t, http.StatusNotFound, w.Code)

	body := decode(t, w)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No user found with that ID", body["message"])
	assert.NotEmpty(t, body["stack"])
	assert.NotEmpty(t, body["error"])
}

func TestHandler_ProdAPIOperational(t *testing.T) {
	r := newTestEngine("production")
	r.GET("/api/boom", func(c *gin.Context) {
		_ = c.Error(New("Incorrect email or password", http.StatusUnauthorized))
		c.Abort()
	})

	w := do(r, "/api/boom")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	body := decode(t, w)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Incorrect email or password", body["message"])
	assert.NotContains(t, body, "stack")
	assert.NotContains(t, body, "error")
}

func TestHandler_ProdAPINonOperationalIsSanitized(t *testing.T) {
	r := newTestEngine("production")
	r.GET("/api/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: connection reset by peer"))
		c.Abort()
	})

	w := do(r, "/api/boom")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "OOPS! Something looks wrong!", body["message"])
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestHandler_ProdWebRendersErrorPage(t *testing.T) {
	r := newTestEngine("production")
	r.GET("/some-page", func(c *gin.Context) {
		_ = c.Error(New("Token is invalid or has expired", http.StatusBadRequest))
		c.Abort()
	})

	w := do(r, "/some-page")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Token is invalid or has expired")
}

func TestHandler_ProdWebNonOperationalHidesMessage(t *testing.T) {
	r := newTestEngine("production")
	r.GET("/some-page", func(c *gin.Context) {
		_ = c.Error(errors.New("reflect: call of Value.Field on nil"))
		c.Abort()
	})

	w := do(r, "/some-page")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Please try again later.")
	assert.NotContains(t, w.Body.String(), "reflect")
}

func TestHandler_SameStatusAcrossChannels(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		r := newTestEngine(env)
		errFn := func(c *gin.Context) {
			_ = c.Error(New("No user found with that ID", http.StatusNotFound))
			c.Abort()
		}
		r.GET("/api/thing", errFn)
		r.GET("/thing", errFn)

		assert.Equal(t, http.StatusNotFound, do(r, "/api/thing").Code, env)
		assert.Equal(t, http.StatusNotFound, do(r, "/thing").Code, env)
	}
}

func TestHandler_SkipsWhenResponseWritten(t *testing.T) {
	r := newTestEngine("production")
	r.GET("/api/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		_ = c.Error(errors.New("late failure"))
	})

	w := do(r, "/api/ok")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "success")
}

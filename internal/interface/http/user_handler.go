package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/travelgo/travelgo/internal/application"
	"github.com/travelgo/travelgo/internal/apperr"
	"github.com/travelgo/travelgo/internal/interface/middleware"
	"github.com/travelgo/travelgo/pkg/helpers"
	"github.com/travelgo/travelgo/pkg/response"
	"github.com/travelgo/travelgo/pkg/validation"
)

type UserHandler struct {
	Svc     *userapp.Service
	Logger  *logrus.Logger
	Cookies *helpers.Manager
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func reqContext(c *gin.Context) userapp.RequestContext {
	return userapp.RequestContext{
		IP:        middleware.ClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

type signupRequest struct {
	Name            string `json:"name" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" binding:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type updatePasswordRequest struct {
	PasswordCurrent string `json:"passwordCurrent" binding:"required"`
	Password        string `json:"password" binding:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required"`
}

type updateMeRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" binding:"omitempty,email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (h *UserHandler) SignUp(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, validation.Error(err))
		return
	}

	user, pair, err := h.Svc.SignUp(c.Request.Context(), userapp.SignUpInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}, reqContext(c))
	if err != nil {
		fail(c, err)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, gin.H{"user": user}, "signed up", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, validation.Error(err))
		return
	}

	user, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"user": user}, "logged in", nil)
}

func (h *UserHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, nil, "logged out", nil)
}

func (h *UserHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		fail(c, apperr.New("You are not logged in! Please log in to get access.", http.StatusUnauthorized))
		return
	}

	pair, _, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		fail(c, err)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, nil, "token refreshed", nil)
}

func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, validation.Error(err))
		return
	}

	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email, reqContext(c)); err != nil {
		fail(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Token sent to email!", nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, validation.Error(err))
		return
	}

	user, pair, err := h.Svc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.PasswordConfirm)
	if err != nil {
		fail(c, err)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"user": user}, "password reset", nil)
}

func (h *UserHandler) UpdateMyPassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, validation.Error(err))
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	user, pair, err := h.Svc.UpdatePassword(c.Request.Context(), uid, req.PasswordCurrent, req.Password, req.PasswordConfirm)
	if err != nil {
		fail(c, err)
		return
	}

	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"user": user}, "password updated", nil)
}

func (h *UserHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	user, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user}, "profile", nil)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, validation.Error(err))
		return
	}
	if req.Password != "" || req.PasswordConfirm != "" {
		fail(c, apperr.New("This route is not for password updates. Please use /updateMyPassword.", http.StatusBadRequest))
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	user, err := h.Svc.UpdateMe(c.Request.Context(), uid, userapp.UpdateMeInput{Name: req.Name, Email: req.Email})
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user}, "profile updated", nil)
}

func (h *UserHandler) UploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		fail(c, apperr.New("Please provide an image file.", http.StatusBadRequest))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		fail(c, apperr.New("Not an image! Please upload only images.", http.StatusBadRequest))
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	url, err := h.Svc.UploadPhoto(c.Request.Context(), uid, file, header.Filename, contentType)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"photo": url}, "photo uploaded", nil)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.DeleteMe(c.Request.Context(), uid); err != nil {
		fail(c, err)
		return
	}
	h.Cookies.Clear(c)
	c.Status(http.StatusNoContent)
}

// Search is an admin-only lookup backed by Elasticsearch.
func (h *UserHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, apperr.New("Please provide a search query.", http.StatusBadRequest))
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": len(hits), "users": hits}, "users", nil)
}

// GetUser is an admin lookup by ID and does not filter soft-deleted rows
// out of the 404 message shape.
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.Svc.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user}, "user", nil)
}

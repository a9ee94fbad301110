package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreeji-gems/diamond-api/internal/service"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/response"
)

// SessionCookie configures how the session token is delivered to the browser.
type SessionCookie struct {
	Name   string
	Domain string
	Secure bool
	MaxAge int
}

// AuthHandler handles session endpoints.
type AuthHandler struct {
	service *service.AuthService
	cookie  SessionCookie
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(svc *service.AuthService, cookie SessionCookie) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "dmd_session"
	}
	return &AuthHandler{service: svc, cookie: cookie}
}

// Login godoc
// @Summary Sign in with user name and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, result.Token, h.cookie.MaxAge, "/", h.cookie.Domain, h.cookie.Secure, true)
	response.JSON(c, http.StatusOK, result.User, nil, map[string]interface{}{
		"expiresAt": result.ExpiresAt,
	})
}

// Logout godoc
// @Summary Clear the session cookie
// @Tags Auth
// @Produce json
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	response.NoContent(c)
}

// Me godoc
// @Summary Return the session user
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Users godoc
// @Summary List users for the ledger's created-by select
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/users [get]
func (h *AuthHandler) Users(c *gin.Context) {
	users, err := h.service.Users(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// CreateUser godoc
// @Summary Register a new back-office user
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Router /auth/users [post]
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	authsvc "staybook/internal/app/services/auth"
	domainuser "staybook/internal/domain/user"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

type AuthHandler struct {
	Service *authsvc.Service
	Logger  *slog.Logger
}

type credentialsRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	WantToHost bool   `json:"want_to_host"`
}

// bindCredentials guards the two unauthenticated endpoints. It writes the
// error response itself so callers can just return on false.
func (h AuthHandler) bindCredentials(c *gin.Context) (credentialsRequest, bool) {
	var req credentialsRequest
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return req, false
	}
	req.Email = strings.TrimSpace(req.Email)
	return req, true
}

func (h AuthHandler) Register(c *gin.Context) {
	req, ok := h.bindCredentials(c)
	if !ok {
		return
	}
	result, err := h.Service.Register(c.Request.Context(), authsvc.RegisterParams{
		Email:      req.Email,
		Password:   req.Password,
		WantToHost: req.WantToHost,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewAuthResponse(result.User, result.Token))
}

func (h AuthHandler) Login(c *gin.Context) {
	req, ok := h.bindCredentials(c)
	if !ok {
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewAuthResponse(result.User, result.Token))
}

func (h AuthHandler) Logout(c *gin.Context) {
	if h.Service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	token := extractBearerToken(c.GetHeader("Authorization"))
	if principal, ok := currentPrincipal(c); ok && principal.Token != "" {
		token = principal.Token
	}
	if err := h.Service.Logout(c.Request.Context(), token); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("logout failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	c.JSON(http.StatusOK, dto.UserProfile{
		ID:        principal.ID,
		Email:     principal.Email,
		Roles:     append([]string(nil), principal.Roles...),
		CreatedAt: principal.CreatedAt,
		UpdatedAt: principal.UpdatedAt,
	})
}

func (h AuthHandler) respondAuthError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		err = errors.New("invalid credentials")
	case errors.Is(err, authsvc.ErrPasswordTooShort), errors.Is(err, domainuser.ErrEmailRequired):
		status = http.StatusBadRequest
	case errors.Is(err, domainuser.ErrEmailAlreadyUsed):
		status = http.StatusConflict
	default:
		if h.Logger != nil {
			h.Logger.Error("auth operation failed", "error", err)
		}
		status = http.StatusInternalServerError
		err = errors.New("internal error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var _ AuthHTTP = (*AuthHandler)(nil)

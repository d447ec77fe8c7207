package handlers

import (
	"errors"
	"net/http"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/identity"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/users"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// LoginRequest carries the ID token issued by the OIDC provider.
type LoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	provider *identity.Provider
	usersSvc *users.Service
}

func NewAuthHandler(p *identity.Provider, u *users.Service) *AuthHandler {
	return &AuthHandler{provider: p, usersSvc: u}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// Login exchanges a verified ID token for an access token and a refresh token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id_token is required")
		return
	}
	res, err := h.provider.SignIn(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidIDToken) {
			unauthorized(c, "invalid id token")
			return
		}
		logger.Errorf("sign-in failed: %v", err)
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}
	access, err := h.provider.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidRefreshToken) {
			unauthorized(c, "invalid refresh token")
			return
		}
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"accessToken": access})
}

// Logout invalidates the refresh token and revokes the bearer access token
// when one is supplied.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}
	access, _ := middleware.BearerToken(c.GetHeader("Authorization"))
	if err := h.provider.SignOut(c.Request.Context(), req.RefreshToken, access); err != nil {
		logger.Errorf("sign-out failed: %v", err)
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	u, err := h.usersSvc.Get(c.Request.Context(), email)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

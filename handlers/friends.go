package handlers

import (
	"net/http"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/gateway"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/users"
	"github.com/gin-gonic/gin"
)

type FriendsHandler struct {
	gw       *gateway.Gateway
	usersSvc *users.Service
}

func NewFriendsHandler(gw *gateway.Gateway, u *users.Service) *FriendsHandler {
	return &FriendsHandler{gw: gw, usersSvc: u}
}

// Register expects rg to be behind AuthMiddleware.
func (h *FriendsHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/friends", h.GetFriends)
	rg.POST("/friends", h.AddFriend)
	rg.DELETE("/friends/:email", h.RemoveFriend)
	rg.GET("/users/:email/name", h.DisplayName)
}

func (h *FriendsHandler) GetFriends(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	v, err := h.usersSvc.WatchFriends(c.Request.Context(), email)
	if err != nil {
		fail(c, err)
		return
	}
	defer v.Close()
	friends, err := firstUpdate(c.Request.Context(), v.Updates(), v.Err)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, friends)
}

func (h *FriendsHandler) AddFriend(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.gw.AddFriend(c.Request.Context(), email, req.Email, req.Name); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"email": req.Email})
}

func (h *FriendsHandler) RemoveFriend(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	if err := h.gw.RemoveFriend(c.Request.Context(), email, c.Param("email")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// DisplayName resolves the name shown next to items a user added.
func (h *FriendsHandler) DisplayName(c *gin.Context) {
	email := c.Param("email")
	ok(c, http.StatusOK, gin.H{"email": email, "name": h.usersSvc.DisplayName(c.Request.Context(), email)})
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/gateway"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/lists"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/users"
	"github.com/gin-gonic/gin"
)

// snapshotTimeout bounds how long a one-shot read waits for a live view's
// first value.
const snapshotTimeout = 10 * time.Second

// ListsHandler serves list and item routes on top of the mutation gateway
// and the live views.
type ListsHandler struct {
	gw       *gateway.Gateway
	lists    *lists.Aggregator
	items    *lists.Partitioner
	usersSvc *users.Service
}

func NewListsHandler(gw *gateway.Gateway, agg *lists.Aggregator, part *lists.Partitioner, u *users.Service) *ListsHandler {
	return &ListsHandler{gw: gw, lists: agg, items: part, usersSvc: u}
}

// Register expects rg to be behind AuthMiddleware.
func (h *ListsHandler) Register(rg *gin.RouterGroup) {
	l := rg.Group("/lists")
	l.GET("", h.GetLists)
	l.POST("", h.CreateList)
	l.DELETE("", h.DeleteLists)
	l.PATCH("/:id", h.UpdateList)
	l.DELETE("/:id", h.DeleteList)

	l.GET("/:id/items", h.GetItems)
	l.POST("/:id/items", h.AddItems)
	l.DELETE("/:id/items", h.DeleteItems)
	l.DELETE("/:id/items/finished", h.ClearFinished)
	l.PATCH("/:id/items/:itemId", h.RenameItem)
	l.DELETE("/:id/items/:itemId", h.DeleteItem)
	l.POST("/:id/items/:itemId/status", h.ToggleStatus)
	l.POST("/:id/items/:itemId/important", h.ToggleImportant)
}

// firstUpdate waits for the first value of a live view.
func firstUpdate[T any](ctx context.Context, updates <-chan T, viewErr func() error) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()
	select {
	case v, open := <-updates:
		if !open {
			if err := viewErr(); err != nil {
				return zero, err
			}
			return zero, apperr.Wrap(apperr.KindStoreUnavailable, "snapshot", context.Canceled)
		}
		return v, nil
	case <-ctx.Done():
		return zero, apperr.Wrap(apperr.KindStoreUnavailable, "snapshot", ctx.Err())
	}
}

type createListRequest struct {
	Name         string   `json:"listName"`
	AccessEmails []string `json:"accessEmails"`
}

type idsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *ListsHandler) GetLists(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	v, err := h.lists.Watch(c.Request.Context(), email)
	if err != nil {
		fail(c, err)
		return
	}
	defer v.Close()
	snap, err := firstUpdate(c.Request.Context(), v.Updates(), v.Err)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, snap)
}

func (h *ListsHandler) CreateList(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	list, err := h.gw.CreateList(c.Request.Context(), email, req.Name, req.AccessEmails)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, list)
}

func (h *ListsHandler) UpdateList(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	var upd gateway.ListUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.gw.UpdateListMetadata(c.Request.Context(), email, c.Param("id"), upd); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *ListsHandler) DeleteList(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	if err := h.gw.DeleteList(c.Request.Context(), email, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *ListsHandler) DeleteLists(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "ids is required")
		return
	}
	n, err := h.gw.DeleteLists(c.Request.Context(), email, req.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": n})
}

// GetItems returns the list's items partitioned by status plus the display
// name of everyone who added one.
func (h *ListsHandler) GetItems(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	ctx := c.Request.Context()
	listID := c.Param("id")
	if err := h.gw.CheckAccess(ctx, email, listID); err != nil {
		fail(c, err)
		return
	}
	v, err := h.items.Watch(ctx, listID)
	if err != nil {
		fail(c, err)
		return
	}
	defer v.Close()
	parts, err := firstUpdate(ctx, v.Updates(), v.Err)
	if err != nil {
		fail(c, err)
		return
	}
	names := map[string]string{}
	for _, it := range parts.All {
		if _, seen := names[it.AddedBy]; !seen && it.AddedBy != "" {
			names[it.AddedBy] = h.usersSvc.DisplayName(ctx, it.AddedBy)
		}
	}
	ok(c, http.StatusOK, gin.H{"partitions": parts, "names": names})
}

// AddItems takes newline-separated item names.
func (h *ListsHandler) AddItems(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	items, err := h.gw.AddItems(c.Request.Context(), email, c.Param("id"), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, items)
}

func (h *ListsHandler) DeleteItems(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "ids is required")
		return
	}
	n, err := h.gw.DeleteItems(c.Request.Context(), email, c.Param("id"), req.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": n})
}

func (h *ListsHandler) ClearFinished(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	n, err := h.gw.ClearFinished(c.Request.Context(), email, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": n})
}

func (h *ListsHandler) RenameItem(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if err := h.gw.RenameItem(c.Request.Context(), email, c.Param("id"), c.Param("itemId"), req.Name); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *ListsHandler) DeleteItem(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	if err := h.gw.DeleteItem(c.Request.Context(), email, c.Param("id"), c.Param("itemId")); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

func (h *ListsHandler) ToggleStatus(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	pending, err := h.gw.ToggleItemStatus(c.Request.Context(), email, c.Param("id"), c.Param("itemId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"pending": pending})
}

func (h *ListsHandler) ToggleImportant(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	important, err := h.gw.ToggleItemImportant(c.Request.Context(), email, c.Param("id"), c.Param("itemId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"important": important})
}

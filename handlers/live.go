package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/apperr"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/gateway"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/lists"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// LiveHandler pushes live view snapshots over websockets. Every frame is a
// result envelope; a view that fails sends one error frame and closes.
type LiveHandler struct {
	gw       *gateway.Gateway
	lists    *lists.Aggregator
	items    *lists.Partitioner
	upgrader websocket.Upgrader
}

func NewLiveHandler(gw *gateway.Gateway, agg *lists.Aggregator, part *lists.Partitioner) *LiveHandler {
	return &LiveHandler{
		gw:    gw,
		lists: agg,
		items: part,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register expects rg to be behind QueryToken and AuthMiddleware.
func (h *LiveHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/live/lists", h.Lists)
	rg.GET("/live/lists/:id/items", h.Items)
}

// QueryToken lets browser websocket clients, which cannot set headers,
// pass the access token as ?access_token=.
func QueryToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if tok := c.Query("access_token"); tok != "" {
				c.Request.Header.Set("Authorization", "Bearer "+tok)
			}
		}
		c.Next()
	}
}

func (h *LiveHandler) Lists(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	v, err := h.lists.Watch(ctx, email)
	if err != nil {
		fail(c, err)
		return
	}
	defer v.Close()
	pushLive(ctx, cancel, c, &h.upgrader, v.Updates(), v.Err)
}

func (h *LiveHandler) Items(c *gin.Context) {
	email, okEmail := caller(c)
	if !okEmail {
		return
	}
	listID := c.Param("id")
	if err := h.gw.CheckAccess(c.Request.Context(), email, listID); err != nil {
		fail(c, err)
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	v, err := h.items.Watch(ctx, listID)
	if err != nil {
		fail(c, err)
		return
	}
	defer v.Close()
	pushLive(ctx, cancel, c, &h.upgrader, v.Updates(), v.Err)
}

// pushLive upgrades the connection and writes every update until the client
// goes away or the view ends. Inbound frames are read and dropped so close
// frames are seen.
func pushLive[T any](ctx context.Context, cancel context.CancelFunc, c *gin.Context, up *websocket.Upgrader, updates <-chan T, viewErr func() error) {
	ws, err := up.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debugf("live: upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case v, open := <-updates:
			_ = ws.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if !open {
				if err := viewErr(); err != nil {
					_ = ws.WriteJSON(apperr.Fail(err))
				}
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteJSON(apperr.OK(v)); err != nil {
				logger.Debugf("live: write failed: %v", err)
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteTimeout)); err != nil {
				return
			}
		}
	}
}

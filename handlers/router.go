package handlers

import (
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/gateway"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/identity"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/lists"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/users"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Provider    *identity.Provider
	Users       *users.Service
	Gateway     *gateway.Gateway
	Lists       *lists.Aggregator
	Items       *lists.Partitioner
	AccessToken middleware.Verifier
	// RateLimit runs after authentication so limits apply per user; nil
	// disables it.
	RateLimit   gin.HandlerFunc
	ReadyChecks map[string]ReadyCheck
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

// NewRouter mounts every route on a fresh gin engine.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	RegisterHealth(r, d.ReadyChecks)
	RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := NewAuthHandler(d.Provider, d.Users)
	authH.Register(r.Group("/"))

	chain := []gin.HandlerFunc{QueryToken(), middleware.AuthMiddleware(d.AccessToken)}
	if d.RateLimit != nil {
		chain = append(chain, d.RateLimit)
	}
	api := r.Group("/api/v1", chain...)
	api.GET("/me", authH.Me)
	NewListsHandler(d.Gateway, d.Lists, d.Items, d.Users).Register(api)
	NewFriendsHandler(d.Gateway, d.Users).Register(api)
	NewLiveHandler(d.Gateway, d.Lists, d.Items).Register(api)
	return r
}

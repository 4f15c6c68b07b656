// Package router wires the HTTP surface: which handler serves which
// path, and which middleware wraps which group.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/stagepass/storefront/internal/config"
	"github.com/stagepass/storefront/internal/handler"
	"github.com/stagepass/storefront/internal/middleware"
)

// RegisterRoutes registers routes that carry no middleware at all.
// Currently just the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the guest-facing catalog routes. Reads go
// through the Redis response cache and the rate limiter; both degrade to
// pass-throughs when Redis is unavailable.
func RegisterPublic(e *echo.Echo, catalog *handler.CatalogHandler, quick *handler.QuickSearchHandler,
	cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.RateLimit(rlCfg, rdb))
	g.Use(middleware.ResponseCache(cacheCfg, rdb))

	g.GET("/concerts", catalog.ListConcerts)
	g.GET("/concerts/search", catalog.SearchConcerts)
	g.GET("/concerts/filter", catalog.FilterConcerts)
	g.GET("/concerts/:id", catalog.GetConcert)
	g.GET("/quicksearch", quick.Search)
}

// RegisterSession registers the authenticated routes: seat holds,
// checkout, notifications, the WebSocket feed and the seller's summary
// regeneration. Everything in this group requires a valid access token.
func RegisterSession(e *echo.Echo, catalog *handler.CatalogHandler, session *handler.SessionHandler,
	notifications *handler.NotificationHandler, ws *handler.WSHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))

	auth.GET("/session", session.GetSession)
	auth.DELETE("/session", session.EndSession)
	auth.POST("/session/seats", session.SelectSeat)
	auth.DELETE("/session/seats", session.ClearSeats)
	auth.DELETE("/session/seats/:seatId", session.DeselectSeat)
	auth.POST("/session/checkout", session.Checkout)
	auth.GET("/session/ws", ws.Subscribe)

	auth.GET("/notifications", notifications.List)
	auth.DELETE("/notifications", notifications.DismissAll)
	auth.DELETE("/notifications/:id", notifications.Dismiss)

	auth.POST("/concerts/:id/summary/regenerate", catalog.RegenerateSummary)
}

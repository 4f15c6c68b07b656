package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/stagepass/storefront/internal/booking"
	"github.com/stagepass/storefront/internal/config"
	"github.com/stagepass/storefront/internal/handler"
	"github.com/stagepass/storefront/internal/hub"
	"github.com/stagepass/storefront/internal/notify"
	"github.com/stagepass/storefront/internal/queue"
	"github.com/stagepass/storefront/internal/router"
	"github.com/stagepass/storefront/internal/upstream"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	bookingCfg := config.LoadBookingConfig()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: response cache and rate limiting disabled")
	}

	api := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	publisher := queue.NewPublisher(cfg.AMQPURL)
	go func() {
		if err := queue.StartEventConsumer(cfg.AMQPURL); err != nil {
			log.Printf("event consumer stopped: %v", err)
		}
	}()

	eventHub := hub.NewHub()
	go eventHub.Run()

	toasts := notify.NewStore()
	registry := booking.NewRegistry(api, bookingCfg, sessionListener(eventHub, publisher, toasts))
	defer registry.CloseAll()

	e := echo.New()
	e.HideBanner = true

	catalog := handler.NewCatalogHandler(api)
	quick := handler.NewQuickSearchHandler(api)
	session := handler.NewSessionHandler(registry, toasts)
	notifications := handler.NewNotificationHandler(toasts)
	ws := handler.NewWSHandler(eventHub)

	router.RegisterRoutes(e)
	router.RegisterPublic(e, catalog, quick, cacheCfg, rlCfg, rdb)
	router.RegisterSession(e, catalog, session, notifications, ws, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("storefront listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// sessionListener bridges reservation session events to the WebSocket hub
// and the message broker. Expiry also raises a toast so the warning shows
// even on pages without an open socket.
func sessionListener(h *hub.Hub, pub *queue.Publisher, toasts *notify.Store) booking.ListenerFactory {
	return func(userID uint64) booking.Listener {
		return func(ev booking.Event) {
			h.Broadcast(userID, hub.Message{
				Type:             string(ev.Type),
				SessionID:        ev.SessionID,
				ConcertID:        ev.ConcertID,
				Phase:            string(ev.Phase),
				RemainingSeconds: ev.RemainingSeconds,
				SeatIDs:          ev.SeatIDs,
				TotalCents:       ev.TotalCents,
				BookingID:        ev.BookingID,
			})

			switch ev.Type {
			case booking.EventExpired:
				toasts.Add(notify.LevelWarning, "Your seat reservation has expired")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = pub.PublishSessionExpired(ctx, queue.SessionExpiredEvent{
					SessionID: ev.SessionID,
					UserID:    ev.UserID,
					ConcertID: ev.ConcertID,
					SeatIDs:   ev.SeatIDs,
					ExpiredAt: time.Now().UTC().Format(time.RFC3339),
				})
			case booking.EventCheckoutSucceeded:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = pub.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
					BookingID:   ev.BookingID,
					SessionID:   ev.SessionID,
					UserID:      ev.UserID,
					ConcertID:   ev.ConcertID,
					SeatIDs:     ev.SeatIDs,
					SeatLabels:  ev.SeatLabels,
					TotalCents:  ev.TotalCents,
					ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
				})
			}
		}
	}
}

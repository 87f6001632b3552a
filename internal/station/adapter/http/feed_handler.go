package http

import (
	"context"
	"time"

	"evconnect/internal/shared/logger"
	"evconnect/internal/shared/utils"
	"evconnect/internal/station/usecase"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	localsOwnerID = "feed_owner_id"

	feedReadTimeout  = 60 * time.Second
	feedPingInterval = 30 * time.Second
	feedWriteTimeout = 10 * time.Second
)

// FeedHandler streams the caller's station events over a websocket
type FeedHandler struct {
	feed *usecase.FeedUsecase
	log  logger.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *usecase.FeedUsecase, log logger.Logger) *FeedHandler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &FeedHandler{feed: feed, log: log.WithComponent("station_feed_ws")}
}

// RegisterRoutes mounts GET /feed behind protect
func (h *FeedHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	router.Use("/feed", protect, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		userID, err := utils.GetUserIDFromContext(c.UserContext())
		if err != nil {
			return fiber.ErrUnauthorized
		}
		c.Locals(localsOwnerID, userID)
		return c.Next()
	})

	router.Get("/feed", websocket.New(h.handleConnection))
}

func (h *FeedHandler) handleConnection(conn *websocket.Conn) {
	ownerID, _ := conn.Locals(localsOwnerID).(string)
	if ownerID == "" {
		_ = conn.Close()
		return
	}

	sub := h.feed.Subscribe(ownerID)
	log := h.log.WithFields(map[string]interface{}{
		"subscriber_id": sub.ID,
		"user_id":       ownerID,
	})
	log.Info("Feed connection established")

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		sub.Close()
		log.Info("Feed connection closed")
	}()

	go h.forward(ctx, cancel, conn, sub, log)

	// Reads only detect disconnection and refresh the deadline on pong.
	conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedReadTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("Feed websocket error: %v", err)
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// forward is the only writer on conn
func (h *FeedHandler) forward(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, sub *usecase.Subscription, log logger.Logger) {
	defer cancel()

	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events:
			if !ok {
				_ = conn.Close()
				return
			}
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				log.Warnf("Failed to write feed event: %v", err)
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

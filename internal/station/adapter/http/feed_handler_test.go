package http_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"evconnect/internal/shared/eventbus"
	"evconnect/internal/shared/logger"
	"evconnect/internal/shared/utils"
	stationhttp "evconnect/internal/station/adapter/http"
	"evconnect/internal/station/domain/model"
	"evconnect/internal/station/usecase"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func startFeedServer(t *testing.T) (string, *eventbus.EventBus, *usecase.FeedUsecase) {
	t.Helper()
	bus := eventbus.NewEventBus(nil)
	feed := usecase.NewFeedUsecase(bus, 4, nil)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          utils.NewErrorHandler(logger.NewNopLogger()),
	})
	stationhttp.NewFeedHandler(feed, nil).RegisterRoutes(app.Group("/ev"), fakeGate)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return ln.Addr().String(), bus, feed
}

func TestFeedHandler_RequiresUpgrade(t *testing.T) {
	bus := eventbus.NewEventBus(nil)
	app := fiber.New(fiber.Config{ErrorHandler: utils.NewErrorHandler(logger.NewNopLogger())})
	stationhttp.NewFeedHandler(usecase.NewFeedUsecase(bus, 1, nil), nil).RegisterRoutes(app.Group("/ev"), fakeGate)

	req := httptest.NewRequest(http.MethodGet, "/ev/feed", nil)
	req.Header.Set("X-User", primitive.NewObjectID().Hex())
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/ev/feed", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestFeedHandler_StreamsOwnEvents(t *testing.T) {
	addr, bus, feed := startFeedServer(t)
	owner := primitive.NewObjectID()

	header := http.Header{}
	header.Set("X-User", owner.Hex())
	conn, _, err := fastws.DefaultDialer.Dial("ws://"+addr+"/ev/feed", header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return feed.SubscriberCount(owner.Hex()) == 1 }, 2*time.Second, 10*time.Millisecond)

	publish := func(o primitive.ObjectID, name string) {
		payload := model.StationEvent{
			Type:      model.EventStationCreated,
			Station:   &model.Station{ID: primitive.NewObjectID(), Name: name, OwnerID: o},
			Timestamp: time.Now().UTC(),
		}
		require.NoError(t, bus.Publish(context.Background(), eventbus.NewBasicEventWithSource(string(payload.Type), payload, model.EventSource)))
	}
	publish(primitive.NewObjectID(), "someone else's")
	publish(owner, "mine")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &frame))
	assert.Equal(t, "station.created", frame["type"])
	assert.Equal(t, "mine", frame["station"].(map[string]interface{})["name"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return feed.SubscriberCount(owner.Hex()) == 0 }, 2*time.Second, 10*time.Millisecond)
}

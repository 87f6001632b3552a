// Command stationwatch prints the station feed of the user whose token it is given.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"evconnect/internal/shared/logger"
	"evconnect/internal/station/domain/model"

	"github.com/caarlos0/env/v6"
	"github.com/fasthttp/websocket"
	"github.com/joho/godotenv"
)

type watchConfig struct {
	URL   string `env:"STATIONWATCH_URL" envDefault:"ws://localhost:4001/ev/feed"`
	Token string `env:"STATIONWATCH_TOKEN,required"`
}

func main() {
	_ = godotenv.Load()

	cfg := &watchConfig{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("Failed to load stationwatch configuration: %v", err)
	}

	appLogger := logger.NewLogger().WithComponent("stationwatch")

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.Token)

	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(cfg.URL, header)
	if err != nil {
		if resp != nil {
			log.Fatalf("Failed to connect to %s: %v (HTTP %d)", cfg.URL, err, resp.StatusCode)
		}
		log.Fatalf("Failed to connect to %s: %v", cfg.URL, err)
	}
	defer conn.Close()
	appLogger.Infof("Watching %s", cfg.URL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var event model.StationEvent
			if err := conn.ReadJSON(&event); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					appLogger.Errorf("Feed closed: %v", err)
				}
				return
			}
			printEvent(event)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-quit:
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
			appLogger.Warnf("Failed to send close frame: %v", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printEvent(event model.StationEvent) {
	out, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode event: %v", err)
		return
	}
	os.Stdout.Write(append(out, '\n'))
}

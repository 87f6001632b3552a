package utils

import (
	"time"

	"evconnect/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// LocalsRequestID is the Locals key the request id is stored under
const LocalsRequestID = "requestid"

// RequestID assigns every request an X-Request-ID, honoring one sent by the client.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		ContextKey: LocalsRequestID,
	})
}

// RequestLogger copies the request id onto the user context and logs one line per
// request. Errors are rendered here so the logged status is the one sent.
func RequestLogger(log logger.Logger) fiber.Handler {
	log = log.WithComponent("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if id, ok := c.Locals(LocalsRequestID).(string); ok && id != "" {
			c.SetUserContext(WithRequestID(c.UserContext(), id))
		}

		if err := c.Next(); err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		entry := log.WithContext(c.UserContext()).WithFields(map[string]interface{}{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
		})
		switch {
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request completed")
		}
		return nil
	}
}

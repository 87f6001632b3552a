package utils

import (
	"errors"

	apperrors "evconnect/internal/shared/errors"
	"evconnect/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler returns the Fiber error handler that renders every error escaping a
// handler as {"success": false, "message": ...}. Validation failures also carry "errors".
func NewErrorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			status := apperrors.HTTPStatus(appErr)
			if status >= fiber.StatusInternalServerError {
				log.WithContext(c.UserContext()).Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
			}
			body := fiber.Map{
				"success": false,
				"message": appErr.Message,
			}
			if details, ok := appErr.Details["errors"]; ok {
				body["errors"] = details
			}
			return c.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"success": false,
				"message": fiberErr.Message,
			})
		}

		log.WithContext(c.UserContext()).Errorf("%s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Internal Server Error",
		})
	}
}

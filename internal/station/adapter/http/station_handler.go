package http

import (
	apperrors "evconnect/internal/shared/errors"
	"evconnect/internal/shared/utils"
	"evconnect/internal/station/domain/model"
	"evconnect/internal/station/usecase"

	"github.com/gofiber/fiber/v2"
)

// StationHTTPHandler serves the ownership-scoped station routes
type StationHTTPHandler struct {
	usecase usecase.StationUsecaseInterface
}

// NewStationHTTPHandler creates a new station HTTP handler
func NewStationHTTPHandler(uc usecase.StationUsecaseInterface) *StationHTTPHandler {
	return &StationHTTPHandler{usecase: uc}
}

// RegisterRoutes mounts the station routes. protect must be the request gate.
func (h *StationHTTPHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	stations := router.Group("/stations", protect)
	stations.Post("/", h.CreateStation)
	stations.Get("/", h.ListStations)
	stations.Get("/:id", h.GetStation)
	stations.Put("/:id", h.UpdateStation)
	stations.Delete("/:id", h.DeleteStation)
}

// CreateStation handles POST /stations
func (h *StationHTTPHandler) CreateStation(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	fields, err := parseFields(c)
	if err != nil {
		return err
	}

	station, err := h.usecase.CreateStation(c.UserContext(), caller, fields)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Charging station created successfully",
		"data":    station,
	})
}

// ListStations handles GET /stations?status=&connectorType=
func (h *StationHTTPHandler) ListStations(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	stations, err := h.usecase.ListStations(c.UserContext(), caller, c.Query("status"), c.Query("connectorType"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(stations),
		"data":    stations,
	})
}

// GetStation handles GET /stations/:id
func (h *StationHTTPHandler) GetStation(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	station, err := h.usecase.GetStation(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    station,
	})
}

// UpdateStation handles PUT /stations/:id. Only the fields present in the body change.
func (h *StationHTTPHandler) UpdateStation(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	fields, err := parseFields(c)
	if err != nil {
		return err
	}

	station, err := h.usecase.UpdateStation(c.UserContext(), caller, c.Params("id"), fields)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Station updated successfully",
		"data":    station,
	})
}

// DeleteStation handles DELETE /stations/:id
func (h *StationHTTPHandler) DeleteStation(c *fiber.Ctx) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	if err := h.usecase.DeleteStation(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Station deleted successfully",
	})
}

// callerFrom reads the identity the request gate placed on the user context
func callerFrom(c *fiber.Ctx) (model.Caller, error) {
	userID, err := utils.GetUserIDFromContext(c.UserContext())
	if err != nil {
		return model.Caller{}, apperrors.NewAuthenticationError("Unauthorized").WithCause(err)
	}
	email, _ := utils.GetUserEmailFromContext(c.UserContext())
	return model.Caller{UserID: userID, Email: email}, nil
}

func parseFields(c *fiber.Ctx) (model.StationFields, error) {
	var fields model.StationFields
	if len(c.Body()) == 0 {
		return fields, nil
	}
	if err := c.BodyParser(&fields); err != nil {
		return fields, apperrors.NewValidationError("Invalid request body").WithCause(err)
	}
	return fields, nil
}

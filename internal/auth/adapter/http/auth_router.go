package http

import (
	"time"

	"evconnect/internal/auth/config"
	"evconnect/internal/auth/usecase"
	apperrors "evconnect/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase        usecase.AuthUsecaseInterface
	cookieName     string
	cookiePath     string
	cookieDomain   string
	cookieMaxAge   int
	cookieSecure   bool
	cookieHTTPOnly bool
	cookieSameSite string
}

// NewAuthHTTPHandler creates a new authentication HTTP handler. The session cookie
// lives as long as the token it carries.
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, cfg *config.Config) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		usecase:        uc,
		cookieName:     cfg.CookieName,
		cookiePath:     cfg.CookiePath,
		cookieDomain:   cfg.CookieDomain,
		cookieMaxAge:   int(cfg.AccessTokenTTL / time.Second),
		cookieSecure:   cfg.CookieSecure,
		cookieHTTPOnly: cfg.CookieHTTPOnly,
		cookieSameSite: cfg.CookieSameSite,
	}
}

// SetupAuthRoutesWithMiddleware mounts the user routes. limiter guards the credential endpoints.
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware, limiter fiber.Handler) {
	router.Post("/register", limiter, h.Register)
	router.Post("/login", limiter, h.Login)
	router.Get("/logout", middleware.Protect(), h.Logout)
	router.Get("/profile", middleware.Protect(), h.GetCurrentUser)
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body").WithCause(err)
	}

	user, token, err := h.usecase.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.setCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User Created Successfully",
		"token":   token,
		"user":    user,
	})
}

// Login handles user login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid request body").WithCause(err)
	}

	user, token, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.setCookie(c, token)

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout revokes the token the request gate authenticated
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	token, ok := GetToken(c)
	if !ok {
		return apperrors.NewAuthenticationError("Unauthorized")
	}

	if err := h.usecase.Logout(c.UserContext(), token); err != nil {
		return err
	}

	h.clearCookie(c)

	return c.JSON(fiber.Map{
		"message": "Logged Out",
	})
}

// GetCurrentUser returns the authenticated user
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	user, ok := GetUser(c)
	if !ok {
		return apperrors.NewAuthenticationError("Unauthorized")
	}
	return c.JSON(fiber.Map{
		"user": user,
	})
}

// Helper methods

func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     h.cookiePath,
		Domain:   h.cookieDomain,
		MaxAge:   h.cookieMaxAge,
		Secure:   h.cookieSecure,
		HTTPOnly: h.cookieHTTPOnly,
		SameSite: h.cookieSameSite,
		Expires:  time.Now().Add(time.Duration(h.cookieMaxAge) * time.Second),
	})
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     h.cookiePath,
		Domain:   h.cookieDomain,
		MaxAge:   -1,
		Secure:   h.cookieSecure,
		HTTPOnly: h.cookieHTTPOnly,
		SameSite: h.cookieSameSite,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

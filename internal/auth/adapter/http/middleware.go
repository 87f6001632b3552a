package http

import (
	"strings"
	"time"

	"evconnect/internal/auth/domain/model"
	"evconnect/internal/auth/usecase"
	apperrors "evconnect/internal/shared/errors"
	"evconnect/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

const (
	// LocalsUser holds the authenticated *model.User for downstream handlers
	LocalsUser = "user"
	// LocalsToken holds the raw session token the request was authenticated with
	LocalsToken = "token"
)

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase    usecase.AuthUsecaseInterface
	cookieName string
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		usecase:    uc,
		cookieName: cookieName,
	}
}

// SecurityHeaders adds security headers
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		return c.Next()
	}
}

// RateLimiter limits credential endpoints per client IP. max == 0 disables limiting.
func (m *AuthMiddleware) RateLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Too many requests, please try again later",
			})
		},
	})
}

// Protect is the request gate. It rejects the request unless it carries a session token
// that is not revoked, verifies, and belongs to an existing user.
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := m.extractToken(c)
		if token == "" {
			return apperrors.NewAuthenticationError("Unauthorized").WithCause(model.ErrTokenInvalid)
		}

		user, err := m.usecase.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		ctx = utils.WithUserID(ctx, user.ID.Hex())
		ctx = utils.WithUserEmail(ctx, user.Email)
		ctx = utils.WithToken(ctx, token)
		c.SetUserContext(ctx)

		c.Locals(LocalsUser, user)
		c.Locals(LocalsToken, token)
		return c.Next()
	}
}

// extractToken reads the session cookie first, then a bearer Authorization header
func (m *AuthMiddleware) extractToken(c *fiber.Ctx) string {
	if token := c.Cookies(m.cookieName); token != "" {
		return token
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if scheme, token, ok := strings.Cut(authHeader, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// GetUser returns the user attached by Protect
func GetUser(c *fiber.Ctx) (*model.User, bool) {
	user, ok := c.Locals(LocalsUser).(*model.User)
	return user, ok && user != nil
}

// GetUserID returns the hex ID of the user attached by Protect
func GetUserID(c *fiber.Ctx) (string, bool) {
	user, ok := GetUser(c)
	if !ok {
		return "", false
	}
	return user.ID.Hex(), true
}

// GetToken returns the raw token the request was authenticated with
func GetToken(c *fiber.Ctx) (string, bool) {
	token, ok := c.Locals(LocalsToken).(string)
	return token, ok && token != ""
}

package auth

import (
	"context"
	"fmt"

	authhttp "evconnect/internal/auth/adapter/http"
	"evconnect/internal/auth/adapter/persistence/mongodb"
	rediscache "evconnect/internal/auth/adapter/persistence/redis"
	"evconnect/internal/auth/adapter/security"
	"evconnect/internal/auth/config"
	"evconnect/internal/auth/domain/repository"
	"evconnect/internal/auth/usecase"
	"evconnect/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthModule represents the complete authentication module
type AuthModule struct {
	users       repository.UserRepository
	revocations repository.RevocationList
	tokenSvc    repository.TokenService
	usecase     usecase.AuthUsecaseInterface
	handler     *authhttp.AuthHTTPHandler
	middleware  *authhttp.AuthMiddleware
	config      *config.Config
}

// NewAuthModule builds the module on MongoDB. When redisClient is non-nil the revocation
// list is fronted by a Redis cache.
func NewAuthModule(ctx context.Context, db *mongo.Database, redisClient *redis.Client, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	users, err := mongodb.NewMongoUserRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create user repository: %w", err)
	}

	revocationStore, err := mongodb.NewMongoRevocationList(ctx, db, cfg.RevocationTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create revocation list: %w", err)
	}

	var revocations repository.RevocationList = revocationStore
	if redisClient != nil {
		revocations = rediscache.NewCachedRevocationList(revocationStore, redisClient, cfg.RevocationTTL, cfg.Redis.KeyPrefix, log)
	}

	return NewAuthModuleWithRepositories(users, revocations, cfg, log)
}

// NewAuthModuleWithRepositories wires the module around the given stores
func NewAuthModuleWithRepositories(users repository.UserRepository, revocations repository.RevocationList, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(users, revocations, tokenSvc, cfg, log)

	return &AuthModule{
		users:       users,
		revocations: revocations,
		tokenSvc:    tokenSvc,
		usecase:     authUsecase,
		handler:     authhttp.NewAuthHTTPHandler(authUsecase, cfg),
		middleware:  authhttp.NewAuthMiddleware(authUsecase, cfg.CookieName),
		config:      cfg,
	}, nil
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	limiter := am.middleware.RateLimiter(am.config.RateLimitMax, am.config.RateLimitWindow)
	am.handler.SetupAuthRoutesWithMiddleware(router, am.middleware, limiter)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return am.middleware
}

// GetTokenService exposes the token issuer
func (am *AuthModule) GetTokenService() repository.TokenService {
	return am.tokenSvc
}

package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"evconnect/internal/auth"
	authconfig "evconnect/internal/auth/config"
	"evconnect/internal/shared/eventbus"
	"evconnect/internal/shared/logger"
	"evconnect/internal/station"
	stationconfig "evconnect/internal/station/config"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container owns the process-wide dependencies. Modules live in the service registry
// and are looked up by type.
type Container struct {
	mu       sync.RWMutex
	services map[reflect.Type]interface{}
	// Connections
	MongoDB *mongo.Database
	Redis   *redis.Client
	// Configuration
	AuthConfig    *authconfig.Config
	StationConfig *stationconfig.Config

	EventBus *eventbus.EventBus
	Logger   logger.Logger
}

// NewContainer creates a container whose event bus runs with busCfg. A nil log falls
// back to logger.NewLogger.
func NewContainer(log logger.Logger, busCfg eventbus.BusConfig) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	c := &Container{
		services: make(map[reflect.Type]interface{}),
		EventBus: eventbus.NewEventBusWithConfig(log.WithComponent("eventbus"), busCfg),
		Logger:   log,
	}
	c.services[reflect.TypeOf(c.EventBus)] = c.EventBus
	return c
}

// InitializeAuth builds the auth module. redisClient may be nil.
func (c *Container) InitializeAuth(ctx context.Context, mongoDB *mongo.Database, redisClient *redis.Client, cfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.MongoDB = mongoDB
	c.Redis = redisClient
	c.AuthConfig = cfg

	authModule, err := auth.NewAuthModule(ctx, mongoDB, redisClient, cfg, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}

	c.services[reflect.TypeOf(authModule)] = authModule
	return nil
}

// InitializeStations builds the station module. Auth must be initialized first.
func (c *Container) InitializeStations(ctx context.Context, cfg *stationconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.services[reflect.TypeOf((*auth.AuthModule)(nil))]; !ok {
		return fmt.Errorf("auth module must be initialized before station module")
	}
	if c.MongoDB == nil {
		return fmt.Errorf("MongoDB must be initialized before station module")
	}

	c.StationConfig = cfg
	stationModule, err := station.NewStationModule(ctx, c.MongoDB, cfg, c.EventBus, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create station module: %w", err)
	}

	c.services[reflect.TypeOf(stationModule)] = stationModule
	return nil
}

// Register registers a service instance under its dynamic type, replacing any previous one
func (c *Container) Register(service interface{}) error {
	if service == nil {
		return fmt.Errorf("service cannot be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[reflect.TypeOf(service)] = service
	return nil
}

// Resolve resolves a service by type
func (c *Container) Resolve(serviceType reflect.Type) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if service, exists := c.services[serviceType]; exists {
		return service, nil
	}
	return nil, fmt.Errorf("service of type %v not registered", serviceType)
}

// GetService is a generic helper for resolving services
func GetService[T any](c *Container) (T, error) {
	var zero T
	service, err := c.Resolve(reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}

	if typedService, ok := service.(T); ok {
		return typedService, nil
	}
	return zero, fmt.Errorf("service is not of expected type %T", zero)
}

// HealthCheck pings MongoDB and, when configured, Redis
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.MongoDB != nil {
		if err := c.MongoDB.Client().Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB health check failed: %w", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis health check failed: %w", err)
		}
	}

	return nil
}

// Cleanup calls Cleanup on every registered service that has one, then closes Redis
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	for _, service := range c.services {
		if cleaner, ok := service.(interface{ Cleanup(context.Context) error }); ok {
			if err := cleaner.Cleanup(ctx); err != nil {
				errs = append(errs, fmt.Errorf("failed to cleanup service: %w", err))
			}
		}
	}
	c.services = make(map[reflect.Type]interface{})

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
		c.Redis = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close shuts the container down with a 30 second budget
func (c *Container) Close() error {
	c.Logger.Info("Closing DI container resources")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}

	c.Logger.Info("DI container resources closed")
	return nil
}

package station

import (
	"context"
	"fmt"

	"evconnect/internal/shared/eventbus"
	"evconnect/internal/shared/logger"
	stationhttp "evconnect/internal/station/adapter/http"
	"evconnect/internal/station/adapter/persistence/mongodb"
	"evconnect/internal/station/adapter/policy"
	"evconnect/internal/station/config"
	"evconnect/internal/station/domain/repository"
	"evconnect/internal/station/usecase"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// StationModule bundles the station repository, usecases and HTTP handlers
type StationModule struct {
	repo        repository.StationRepository
	usecase     *usecase.StationUsecase
	feed        *usecase.FeedUsecase
	handler     *stationhttp.StationHTTPHandler
	feedHandler *stationhttp.FeedHandler
}

// NewStationModule builds the module on MongoDB
func NewStationModule(ctx context.Context, db *mongo.Database, cfg *config.Config, bus eventbus.Bus, log logger.Logger) (*StationModule, error) {
	repo, err := mongodb.NewMongoStationRepository(ctx, db, cfg.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to create station repository: %w", err)
	}
	return NewStationModuleWithRepository(repo, cfg, bus, log)
}

// NewStationModuleWithRepository wires the module around repo. The access rule is
// compiled here so a bad rule fails at startup.
func NewStationModuleWithRepository(repo repository.StationRepository, cfg *config.Config, bus eventbus.Bus, log logger.Logger) (*StationModule, error) {
	accessPolicy, err := policy.NewCELPolicy(cfg.AccessRule)
	if err != nil {
		return nil, fmt.Errorf("failed to compile station access rule: %w", err)
	}
	if bus == nil {
		bus = eventbus.NewEventBus(log)
	}

	stationUsecase := usecase.NewStationUsecase(repo, accessPolicy, bus, log)
	feed := usecase.NewFeedUsecase(bus, cfg.FeedBufferSize, log)

	return &StationModule{
		repo:        repo,
		usecase:     stationUsecase,
		feed:        feed,
		handler:     stationhttp.NewStationHTTPHandler(stationUsecase),
		feedHandler: stationhttp.NewFeedHandler(feed, log),
	}, nil
}

// RegisterRoutes mounts /stations and /feed on router behind protect
func (m *StationModule) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	m.handler.RegisterRoutes(router, protect)
	m.feedHandler.RegisterRoutes(router, protect)
}

// Cleanup disconnects every feed subscriber
func (m *StationModule) Cleanup(ctx context.Context) error {
	m.feed.CloseAll()
	return nil
}

// GetUsecase returns the station usecase
func (m *StationModule) GetUsecase() usecase.StationUsecaseInterface {
	return m.usecase
}

// GetFeed returns the station feed
func (m *StationModule) GetFeed() *usecase.FeedUsecase {
	return m.feed
}

package usecase

import (
	"context"
	"errors"
	"time"

	"evconnect/internal/shared/eventbus"
	apperrors "evconnect/internal/shared/errors"
	"evconnect/internal/shared/logger"
	"evconnect/internal/station/domain/model"
	"evconnect/internal/station/domain/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StationUsecaseInterface is the ownership-scoped station API
type StationUsecaseInterface interface {
	CreateStation(ctx context.Context, caller model.Caller, fields model.StationFields) (*model.Station, error)
	ListStations(ctx context.Context, caller model.Caller, status, connectorType string) ([]*model.Station, error)
	GetStation(ctx context.Context, caller model.Caller, stationID string) (*model.Station, error)
	UpdateStation(ctx context.Context, caller model.Caller, stationID string, fields model.StationFields) (*model.Station, error)
	DeleteStation(ctx context.Context, caller model.Caller, stationID string) error
}

// StationUsecase implements StationUsecaseInterface
type StationUsecase struct {
	repo   repository.StationRepository
	policy repository.AccessPolicy
	bus    eventbus.Bus
	logger logger.Logger
	now    func() time.Time
}

// NewStationUsecase creates the usecase. bus may be nil when no one listens for changes.
func NewStationUsecase(repo repository.StationRepository, policy repository.AccessPolicy, bus eventbus.Bus, log logger.Logger) *StationUsecase {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &StationUsecase{
		repo:   repo,
		policy: policy,
		bus:    bus,
		logger: log.WithComponent("station_usecase"),
		now:    time.Now,
	}
}

// CreateStation validates the fields and stores a station owned by the caller
func (uc *StationUsecase) CreateStation(ctx context.Context, caller model.Caller, fields model.StationFields) (*model.Station, error) {
	owner, err := uc.ownerID(caller)
	if err != nil {
		return nil, err
	}
	if ve := fields.ValidateForCreate(); ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	station := fields.NewStation(owner, uc.now().UTC())
	if err := uc.repo.Create(ctx, station); err != nil {
		return nil, apperrors.NewInternalError("Failed to create station").WithCause(err)
	}

	uc.publish(ctx, model.EventStationCreated, station)
	return station, nil
}

// ListStations returns the caller's stations, optionally filtered
func (uc *StationUsecase) ListStations(ctx context.Context, caller model.Caller, status, connectorType string) ([]*model.Station, error) {
	owner, err := uc.ownerID(caller)
	if err != nil {
		return nil, err
	}

	filter, ve := model.ParseFilter(owner, status, connectorType)
	if ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	stations, err := uc.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError("Failed to list stations").WithCause(err)
	}
	return stations, nil
}

// GetStation returns a station the caller may read
func (uc *StationUsecase) GetStation(ctx context.Context, caller model.Caller, stationID string) (*model.Station, error) {
	station, err := uc.authorized(ctx, caller, stationID, model.OperationRead, "Not authorized to access this station")
	if err != nil {
		return nil, err
	}
	return station, nil
}

// UpdateStation checks ownership before validating the patch, then persists it
func (uc *StationUsecase) UpdateStation(ctx context.Context, caller model.Caller, stationID string, fields model.StationFields) (*model.Station, error) {
	if _, err := uc.authorized(ctx, caller, stationID, model.OperationUpdate, "Not authorized to update this station"); err != nil {
		return nil, err
	}
	if ve := fields.ValidateForUpdate(); ve.HasErrors() {
		return nil, ve.ToAppError()
	}

	updated, err := uc.repo.Update(ctx, stationID, fields, uc.now().UTC())
	if err != nil {
		return nil, uc.repoError(err, "Failed to update station")
	}

	uc.publish(ctx, model.EventStationUpdated, updated)
	return updated, nil
}

// DeleteStation removes a station the caller may delete
func (uc *StationUsecase) DeleteStation(ctx context.Context, caller model.Caller, stationID string) error {
	station, err := uc.authorized(ctx, caller, stationID, model.OperationDelete, "Not authorized to delete this station")
	if err != nil {
		return err
	}

	if err := uc.repo.Delete(ctx, stationID); err != nil {
		return uc.repoError(err, "Failed to delete station")
	}

	uc.publish(ctx, model.EventStationDeleted, station)
	return nil
}

// authorized loads the station, requires the caller to own it, then evaluates the access
// policy for op. The policy can deny an owner but never admits anyone else.
func (uc *StationUsecase) authorized(ctx context.Context, caller model.Caller, stationID string, op model.Operation, deniedMsg string) (*model.Station, error) {
	station, err := uc.repo.GetByID(ctx, stationID)
	if err != nil {
		return nil, uc.repoError(err, "Failed to fetch station")
	}

	allowed := station.OwnedBy(caller.UserID)
	if allowed {
		allowed, err = uc.policy.Allow(ctx, model.AccessRequest{Caller: caller, Operation: op, Station: station})
		if err != nil {
			return nil, apperrors.NewInternalError("Failed to evaluate station access").WithCause(err)
		}
	}
	if !allowed {
		uc.logger.WithContext(ctx).WithFields(map[string]interface{}{
			"station_id": stationID,
			"operation":  string(op),
		}).Warn("Station access denied")
		return nil, apperrors.NewAuthorizationError(deniedMsg).WithCause(model.ErrAccessDenied)
	}
	return station, nil
}

func (uc *StationUsecase) ownerID(caller model.Caller) (primitive.ObjectID, error) {
	owner, err := primitive.ObjectIDFromHex(caller.UserID)
	if err != nil {
		return primitive.NilObjectID, apperrors.NewAuthenticationError("Unauthorized").WithCause(err)
	}
	return owner, nil
}

func (uc *StationUsecase) repoError(err error, message string) error {
	if errors.Is(err, model.ErrStationNotFound) {
		return apperrors.NewNotFoundError("Station").WithCause(err)
	}
	return apperrors.NewInternalError(message).WithCause(err)
}

// publish announces a change without waiting for subscribers. The bus logs delivery failures.
func (uc *StationUsecase) publish(ctx context.Context, eventType model.EventType, station *model.Station) {
	if uc.bus == nil {
		return
	}
	payload := model.StationEvent{Type: eventType, Station: station, Timestamp: uc.now().UTC()}
	uc.bus.PublishAndForget(ctx, eventbus.NewBasicEventWithSource(string(eventType), payload, model.EventSource))
}

var _ StationUsecaseInterface = (*StationUsecase)(nil)

package repository

import (
	"context"
	"time"

	"evconnect/internal/station/domain/model"
)

// StationRepository persists charging stations
type StationRepository interface {
	// Create inserts the station and fills in its ID
	Create(ctx context.Context, station *model.Station) error
	// List returns the matching stations, newest first
	List(ctx context.Context, filter model.StationFilter) ([]*model.Station, error)
	// GetByID returns model.ErrStationNotFound for unknown or malformed IDs
	GetByID(ctx context.Context, id string) (*model.Station, error)
	// Update sets the sent fields and returns the updated record
	Update(ctx context.Context, id string, fields model.StationFields, updatedAt time.Time) (*model.Station, error)
	Delete(ctx context.Context, id string) error
}

// AccessPolicy decides whether a caller may act on a station
type AccessPolicy interface {
	Allow(ctx context.Context, req model.AccessRequest) (bool, error)
}

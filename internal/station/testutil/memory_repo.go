package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"evconnect/internal/station/domain/model"
	"evconnect/internal/station/domain/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStationRepository is an in-memory StationRepository for tests
type MemoryStationRepository struct {
	mu       sync.RWMutex
	stations map[primitive.ObjectID]model.Station
}

// NewMemoryStationRepository creates an empty repository
func NewMemoryStationRepository() *MemoryStationRepository {
	return &MemoryStationRepository{stations: make(map[primitive.ObjectID]model.Station)}
}

func (r *MemoryStationRepository) Create(ctx context.Context, station *model.Station) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if station.ID.IsZero() {
		station.ID = primitive.NewObjectID()
	}
	r.stations[station.ID] = *station
	return nil
}

func (r *MemoryStationRepository) List(ctx context.Context, filter model.StationFilter) ([]*model.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Station, 0)
	for _, s := range r.stations {
		if s.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.ConnectorType != "" && s.ConnectorType != filter.ConnectorType {
			continue
		}
		station := s
		out = append(out, &station)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r *MemoryStationRepository) GetByID(ctx context.Context, id string) (*model.Station, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrStationNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stations[oid]
	if !ok {
		return nil, model.ErrStationNotFound
	}
	return &s, nil
}

func (r *MemoryStationRepository) Update(ctx context.Context, id string, fields model.StationFields, updatedAt time.Time) (*model.Station, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrStationNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stations[oid]
	if !ok {
		return nil, model.ErrStationNotFound
	}
	fields.Apply(&s)
	s.UpdatedAt = updatedAt
	r.stations[oid] = s
	return &s, nil
}

func (r *MemoryStationRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.ErrStationNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stations[oid]; !ok {
		return model.ErrStationNotFound
	}
	delete(r.stations, oid)
	return nil
}

// Len returns the number of stored stations
func (r *MemoryStationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stations)
}

var _ repository.StationRepository = (*MemoryStationRepository)(nil)

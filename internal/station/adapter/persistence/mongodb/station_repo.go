package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"evconnect/internal/station/domain/model"
	"evconnect/internal/station/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStationRepository implements repository.StationRepository using MongoDB
type MongoStationRepository struct {
	stations *mongo.Collection
}

// NewMongoStationRepository creates the repository and the owner listing index
func NewMongoStationRepository(ctx context.Context, db *mongo.Database, collection string) (*MongoStationRepository, error) {
	repo := &MongoStationRepository{
		stations: db.Collection(collection),
	}

	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("owner_created"),
	}
	if _, err := repo.stations.Indexes().CreateOne(ctx, ownerIndex); err != nil {
		return nil, fmt.Errorf("failed to create stations owner index: %w", err)
	}
	return repo, nil
}

// Create inserts a station
func (r *MongoStationRepository) Create(ctx context.Context, station *model.Station) error {
	if station == nil {
		return errors.New("station cannot be nil")
	}
	if station.ID.IsZero() {
		station.ID = primitive.NewObjectID()
	}
	if _, err := r.stations.InsertOne(ctx, station); err != nil {
		return fmt.Errorf("failed to insert station: %w", err)
	}
	return nil
}

// List returns the owner's stations matching the filter, newest first
func (r *MongoStationRepository) List(ctx context.Context, filter model.StationFilter) ([]*model.Station, error) {
	query := bson.M{"userId": filter.OwnerID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ConnectorType != "" {
		query["connectorType"] = filter.ConnectorType
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.stations.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer cursor.Close(ctx)

	stations := make([]*model.Station, 0)
	if err := cursor.All(ctx, &stations); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}
	return stations, nil
}

// GetByID finds a station by its hex ObjectID
func (r *MongoStationRepository) GetByID(ctx context.Context, id string) (*model.Station, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, model.ErrStationNotFound
	}

	var station model.Station
	if err := r.stations.FindOne(ctx, bson.M{"_id": oid}).Decode(&station); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to find station: %w", err)
	}
	return &station, nil
}

// Update applies the sent fields with $set and returns the updated document
func (r *MongoStationRepository) Update(ctx context.Context, id string, fields model.StationFields, updatedAt time.Time) (*model.Station, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, model.ErrStationNotFound
	}

	set := setDocument(fields)
	set["updatedAt"] = updatedAt

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var station model.Station
	err = r.stations.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&station)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to update station: %w", err)
	}
	return &station, nil
}

// Delete removes a station
func (r *MongoStationRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return model.ErrStationNotFound
	}

	res, err := r.stations.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrStationNotFound
	}
	return nil
}

func setDocument(fields model.StationFields) bson.M {
	var patched model.Station
	fields.Apply(&patched)

	set := bson.M{}
	if fields.Name != nil {
		set["name"] = patched.Name
	}
	if fields.Latitude != nil {
		set["latitude"] = patched.Latitude
	}
	if fields.Longitude != nil {
		set["longitude"] = patched.Longitude
	}
	if fields.PowerOutput != nil {
		set["powerOutput"] = patched.PowerOutput
	}
	if fields.ConnectorType != nil {
		set["connectorType"] = patched.ConnectorType
	}
	if fields.Status != nil {
		set["status"] = patched.Status
	}
	return set
}

var _ repository.StationRepository = (*MongoStationRepository)(nil)

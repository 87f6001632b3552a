package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evconnect/internal/auth/domain/model"
	"evconnect/internal/auth/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	revokedTokensCollection = "blacklisted_tokens"
	ttlIndexName            = "created_at_ttl"

	// server error code when an index with the same name exists with other options
	codeIndexOptionsConflict = 85
)

// MongoRevocationList stores logged-out tokens. Expiry is delegated to a TTL index on
// created_at; Lookup also ignores entries past the window because the TTL monitor only
// runs about once a minute.
type MongoRevocationList struct {
	db     *mongo.Database
	tokens *mongo.Collection
	ttl    time.Duration
	now    func() time.Time
}

// NewMongoRevocationList creates the collection indexes: a unique index on token and a
// TTL index expiring entries ttl after created_at.
func NewMongoRevocationList(ctx context.Context, db *mongo.Database, ttl time.Duration) (*MongoRevocationList, error) {
	if ttl < time.Second {
		return nil, errors.New("revocation ttl must be at least one second")
	}

	repo := &MongoRevocationList{
		db:     db,
		tokens: db.Collection(revokedTokensCollection),
		ttl:    ttl,
		now:    time.Now,
	}

	tokenIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("token_unique"),
	}
	if _, err := repo.tokens.Indexes().CreateOne(ctx, tokenIndex); err != nil {
		return nil, fmt.Errorf("failed to create token index: %w", err)
	}

	if err := repo.ensureTTLIndex(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoRevocationList) ensureTTLIndex(ctx context.Context) error {
	seconds := int32(r.ttl / time.Second)
	ttlIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(seconds).SetName(ttlIndexName),
	}

	_, err := r.tokens.Indexes().CreateOne(ctx, ttlIndex)
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != codeIndexOptionsConflict {
		return fmt.Errorf("failed to create ttl index: %w", err)
	}

	// The retention window changed since the index was built; adjust it in place.
	res := r.db.RunCommand(ctx, bson.D{
		{Key: "collMod", Value: revokedTokensCollection},
		{Key: "index", Value: bson.D{
			{Key: "name", Value: ttlIndexName},
			{Key: "expireAfterSeconds", Value: seconds},
		}},
	})
	if err := res.Err(); err != nil {
		return fmt.Errorf("failed to update ttl index: %w", err)
	}
	return nil
}

// Revoke inserts a revocation entry for the token
func (r *MongoRevocationList) Revoke(ctx context.Context, token string) (*model.RevokedToken, error) {
	if token == "" {
		return nil, model.ErrTokenInvalid
	}

	entry := &model.RevokedToken{
		Token:     token,
		CreatedAt: r.now().UTC(),
	}

	_, err := r.tokens.InsertOne(ctx, entry)
	if err == nil {
		return entry, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("failed to revoke token: %w", err)
	}

	// An expired entry the TTL monitor has not removed yet does not count as a duplicate.
	res, err := r.tokens.UpdateOne(ctx,
		bson.M{"token": token, "created_at": bson.M{"$lte": r.cutoff()}},
		bson.M{"$set": bson.M{"created_at": entry.CreatedAt}},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh expired revocation: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, model.ErrTokenAlreadyRevoked
	}
	return entry, nil
}

// IsRevoked reports whether the token has a live revocation entry
func (r *MongoRevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := r.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotRevoked) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Lookup returns the live revocation entry for the token
func (r *MongoRevocationList) Lookup(ctx context.Context, token string) (*model.RevokedToken, error) {
	if token == "" {
		return nil, model.ErrTokenNotRevoked
	}

	var entry model.RevokedToken
	err := r.tokens.FindOne(ctx, bson.M{
		"token":      token,
		"created_at": bson.M{"$gt": r.cutoff()},
	}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrTokenNotRevoked
		}
		return nil, fmt.Errorf("failed to look up revoked token: %w", err)
	}
	return &entry, nil
}

func (r *MongoRevocationList) cutoff() time.Time {
	return r.now().UTC().Add(-r.ttl)
}

var _ repository.RevocationList = (*MongoRevocationList)(nil)

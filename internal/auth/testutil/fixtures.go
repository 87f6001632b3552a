package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"evconnect/internal/auth/domain/model"
	"evconnect/internal/auth/domain/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Clock is a settable time source shared by the in-memory stores
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts the clock at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// UserWithPassword returns a user whose hash matches password
func UserWithPassword(email, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &model.User{
		ID:           primitive.NewObjectID(),
		FullName:     model.FullName{FirstName: "Test", LastName: "User"},
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// MemoryUserRepository is an in-memory UserRepository
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*model.User)}
}

func (r *MemoryUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return model.ErrEmailTaken
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *MemoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *MemoryUserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.ErrUserNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[oid]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

// MemoryRevocationList is an in-memory RevocationList whose entries expire on the clock
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	ttl     time.Duration
	clock   *Clock
}

func NewMemoryRevocationList(ttl time.Duration, clock *Clock) *MemoryRevocationList {
	return &MemoryRevocationList{entries: make(map[string]time.Time), ttl: ttl, clock: clock}
}

func (r *MemoryRevocationList) Revoke(ctx context.Context, token string) (*model.RevokedToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if createdAt, ok := r.entries[token]; ok {
		entry := model.RevokedToken{Token: token, CreatedAt: createdAt}
		if entry.ActiveAt(now, r.ttl) {
			return nil, model.ErrTokenAlreadyRevoked
		}
	}
	r.entries[token] = now
	return &model.RevokedToken{Token: token, CreatedAt: now}, nil
}

func (r *MemoryRevocationList) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, err := r.Lookup(ctx, token)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *MemoryRevocationList) Lookup(ctx context.Context, token string) (*model.RevokedToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	createdAt, ok := r.entries[token]
	if !ok {
		return nil, model.ErrTokenNotRevoked
	}
	entry := &model.RevokedToken{Token: token, CreatedAt: createdAt}
	if !entry.ActiveAt(r.clock.Now(), r.ttl) {
		delete(r.entries, token)
		return nil, model.ErrTokenNotRevoked
	}
	return entry, nil
}

var (
	_ repository.UserRepository = (*MemoryUserRepository)(nil)
	_ repository.RevocationList = (*MemoryRevocationList)(nil)
)

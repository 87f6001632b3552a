package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUser_JSONNeverContainsPasswordHash(t *testing.T) {
	u := &User{
		ID:           primitive.NewObjectID(),
		FullName:     FullName{FirstName: "A", LastName: "B"},
		Email:        "a@x.com",
		PasswordHash: "$2a$10$abcdef",
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$10$abcdef")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, u.ID.Hex(), decoded["_id"])
	assert.Equal(t, map[string]interface{}{"firstname": "A", "lastname": "B"}, decoded["fullname"])
}

func TestUser_Sanitized(t *testing.T) {
	u := &User{Email: "a@x.com", PasswordHash: "hash"}
	s := u.Sanitized()
	assert.Empty(t, s.PasswordHash)
	assert.Equal(t, "hash", u.PasswordHash, "original must not be modified")

	var nilUser *User
	assert.Nil(t, nilUser.Sanitized())
}

func TestRevokedToken_ActiveAt(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	entry := &RevokedToken{Token: "t", CreatedAt: created}

	assert.True(t, entry.ActiveAt(created.Add(23*time.Hour), 24*time.Hour))
	assert.False(t, entry.ActiveAt(created.Add(24*time.Hour), 24*time.Hour))
	assert.Equal(t, created.Add(24*time.Hour), entry.ExpiresAt(24*time.Hour))
}

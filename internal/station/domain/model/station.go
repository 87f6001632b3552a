package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectorType is the plug standard a station offers
type ConnectorType string

const (
	ConnectorType1     ConnectorType = "Type 1"
	ConnectorType2     ConnectorType = "Type 2"
	ConnectorCCS       ConnectorType = "CCS"
	ConnectorCHAdeMO   ConnectorType = "CHAdeMO"
	ConnectorTypeOther ConnectorType = "Other"
)

// ConnectorTypes lists every accepted connector type
var ConnectorTypes = []ConnectorType{ConnectorType1, ConnectorType2, ConnectorCCS, ConnectorCHAdeMO, ConnectorTypeOther}

// Valid reports whether c is one of ConnectorTypes
func (c ConnectorType) Valid() bool {
	for _, known := range ConnectorTypes {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the operational state of a station
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Valid reports whether s is Active or Inactive
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Station is a charging station record owned by exactly one user
type Station struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name          string             `json:"name" bson:"name"`
	Latitude      float64            `json:"latitude" bson:"latitude"`
	Longitude     float64            `json:"longitude" bson:"longitude"`
	PowerOutput   float64            `json:"powerOutput" bson:"powerOutput"`
	ConnectorType ConnectorType      `json:"connectorType" bson:"connectorType"`
	Status        Status             `json:"status" bson:"status"`
	OwnerID       primitive.ObjectID `json:"userId" bson:"userId"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// OwnedBy reports whether userID (hex) owns the station
func (s *Station) OwnedBy(userID string) bool {
	return s.OwnerID.Hex() == userID
}

// StationFilter narrows a listing. OwnerID is always applied.
type StationFilter struct {
	OwnerID       primitive.ObjectID
	Status        Status
	ConnectorType ConnectorType
}

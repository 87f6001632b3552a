package model

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "evconnect/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Number decodes a JSON number or a numeric string. Anything else decodes without
// error and is reported by validation instead.
type Number struct {
	Value float64
	ok    bool
}

// NewNumber returns a valid Number
func NewNumber(v float64) *Number {
	return &Number{Value: v, ok: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if isHexLiteral(raw) {
		*n = Number{}
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = Number{}
		return nil
	}
	*n = Number{Value: v, ok: true}
	return nil
}

// isHexLiteral reports whether raw carries a 0x prefix, which ParseFloat accepts
// for hexadecimal floats such as 0x1p4.
func isHexLiteral(raw string) bool {
	raw = strings.TrimLeft(raw, "+-")
	return strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X")
}

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}

// Valid reports whether the input parsed as a finite number
func (n *Number) Valid() bool {
	return n != nil && n.ok
}

// StationFields is a create or update payload. A nil field was not sent.
type StationFields struct {
	Name          *string        `json:"name,omitempty"`
	Latitude      *Number        `json:"latitude,omitempty"`
	Longitude     *Number        `json:"longitude,omitempty"`
	PowerOutput   *Number        `json:"powerOutput,omitempty"`
	ConnectorType *ConnectorType `json:"connectorType,omitempty"`
	Status        *Status        `json:"status,omitempty"`
}

// Empty reports whether no field was sent
func (f StationFields) Empty() bool {
	return f.Name == nil && f.Latitude == nil && f.Longitude == nil &&
		f.PowerOutput == nil && f.ConnectorType == nil && f.Status == nil
}

// ValidateForCreate requires every field except status
func (f StationFields) ValidateForCreate() *apperrors.ValidationErrors {
	ve := apperrors.NewValidationErrors()
	if f.Name == nil {
		ve.Add("name", "Station name is required", nil)
	}
	if f.Latitude == nil {
		ve.Add("latitude", "Valid latitude is required", nil)
	}
	if f.Longitude == nil {
		ve.Add("longitude", "Valid longitude is required", nil)
	}
	if f.PowerOutput == nil {
		ve.Add("powerOutput", "Power output is required", nil)
	}
	if f.ConnectorType == nil {
		ve.Add("connectorType", "Invalid connector type", nil)
	}
	return ve.Merge(f.validatePresent())
}

// ValidateForUpdate validates only the fields that were sent and rejects an empty patch
func (f StationFields) ValidateForUpdate() *apperrors.ValidationErrors {
	if f.Empty() {
		return apperrors.NewValidationErrors().Add("", "No fields provided for update", nil)
	}
	return f.validatePresent()
}

func (f StationFields) validatePresent() *apperrors.ValidationErrors {
	ve := apperrors.NewValidationErrors()
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		ve.Add("name", "Station name is required", *f.Name)
	}
	if f.Latitude != nil {
		switch {
		case !f.Latitude.Valid():
			ve.Add("latitude", "Valid latitude is required", nil)
		case f.Latitude.Value < -90 || f.Latitude.Value > 90:
			ve.Add("latitude", "Latitude must be between -90 and 90", f.Latitude.Value)
		}
	}
	if f.Longitude != nil {
		switch {
		case !f.Longitude.Valid():
			ve.Add("longitude", "Valid longitude is required", nil)
		case f.Longitude.Value < -180 || f.Longitude.Value > 180:
			ve.Add("longitude", "Longitude must be between -180 and 180", f.Longitude.Value)
		}
	}
	if f.PowerOutput != nil {
		switch {
		case !f.PowerOutput.Valid():
			ve.Add("powerOutput", "Power output is required", nil)
		case f.PowerOutput.Value <= 0:
			ve.Add("powerOutput", "Power output must be greater than 0", f.PowerOutput.Value)
		}
	}
	if f.ConnectorType != nil && !f.ConnectorType.Valid() {
		ve.Add("connectorType", "Invalid connector type", string(*f.ConnectorType))
	}
	if f.Status != nil && !f.Status.Valid() {
		ve.Add("status", "Invalid status", string(*f.Status))
	}
	return ve
}

// NewStation builds a station from validated create fields
func (f StationFields) NewStation(owner primitive.ObjectID, now time.Time) *Station {
	station := &Station{
		OwnerID:   owner,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.Apply(station)
	station.UpdatedAt = now
	return station
}

// Apply copies the sent fields onto s
func (f StationFields) Apply(s *Station) {
	if f.Name != nil {
		s.Name = strings.TrimSpace(*f.Name)
	}
	if f.Latitude != nil {
		s.Latitude = f.Latitude.Value
	}
	if f.Longitude != nil {
		s.Longitude = f.Longitude.Value
	}
	if f.PowerOutput != nil {
		s.PowerOutput = f.PowerOutput.Value
	}
	if f.ConnectorType != nil {
		s.ConnectorType = *f.ConnectorType
	}
	if f.Status != nil {
		s.Status = *f.Status
	}
}

// ParseFilter validates the optional listing query values
func ParseFilter(owner primitive.ObjectID, status, connectorType string) (StationFilter, *apperrors.ValidationErrors) {
	ve := apperrors.NewValidationErrors()
	filter := StationFilter{OwnerID: owner}
	if status != "" {
		if s := Status(status); s.Valid() {
			filter.Status = s
		} else {
			ve.Add("status", "Invalid status", status)
		}
	}
	if connectorType != "" {
		if c := ConnectorType(connectorType); c.Valid() {
			filter.ConnectorType = c
		} else {
			ve.Add("connectorType", "Invalid connector type", connectorType)
		}
	}
	return filter, ve
}

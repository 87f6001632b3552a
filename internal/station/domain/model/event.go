package model

import "time"

// EventType names a station change published on the event bus
type EventType string

const (
	EventStationCreated EventType = "station.created"
	EventStationUpdated EventType = "station.updated"
	EventStationDeleted EventType = "station.deleted"
)

// EventSource is the bus source of every station event
const EventSource = "stations"

// StationEvent is the bus payload and the frame streamed to feed subscribers
type StationEvent struct {
	Type      EventType `json:"type"`
	Station   *Station  `json:"station"`
	Timestamp time.Time `json:"timestamp"`
}

// Operation is the action an access check is made for
type Operation string

const (
	OperationRead   Operation = "read"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Caller identifies the authenticated user behind a request
type Caller struct {
	UserID string
	Email  string
}

// AccessRequest is evaluated by the ownership policy
type AccessRequest struct {
	Caller    Caller
	Operation Operation
	Station   *Station
}

package model

import "errors"

var (
	ErrStationNotFound = errors.New("station not found")
	ErrAccessDenied    = errors.New("access denied by station policy")
)

package zones

import "errors"

// Engine errors
var (
	ErrInvalidGeometry = errors.New("invalid gateway geometry")
	ErrGatewayNotFound = errors.New("gateway not found")
	ErrTooManyZones    = errors.New("too many zones")
	ErrFillOverflow    = errors.New("flood fill exceeded its stack limit")
	ErrZoneOverflow    = errors.New("zone id does not fit in 8 bits")
	ErrWrongState      = errors.New("processing step run out of order")
	ErrRegistryChanged = errors.New("gateway registry changed during processing")
	ErrUnassignedZone  = errors.New("tile left without a zone")
	ErrBadFormat       = errors.New("malformed zone map data")
)

package maps

import "errors"

var (
	// ErrInvalidMap is returned for map files that cannot describe a tile map.
	ErrInvalidMap = errors.New("invalid map")

	// ErrBadGatewayKey is returned for strings not made by GatewayKey.
	ErrBadGatewayKey = errors.New("bad gateway key")
)

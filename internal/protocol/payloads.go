package protocol

// ==================== Processing Payloads ====================

// ProcessMapPayload asks the server to process a map. Either MapID names an
// embedded sample or Map carries the full map.
type ProcessMapPayload struct {
	MapID          string   `json:"map_id,omitempty"`
	Map            *MapData `json:"map,omitempty"`
	Store          bool     `json:"store"`                      // Save the result as a layout
	FillStackLimit int      `json:"fill_stack_limit,omitempty"` // 0 uses the server default
}

// MapData contains the full map information.
type MapData struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Rows     []string `json:"rows"`
	Gateways [][]int  `json:"gateways"`
}

// ProgressPayload is sent after each processing step.
type ProgressPayload struct {
	State    string `json:"state"`
	Zones    int    `json:"zones"`
	Gateways int    `json:"gateways"`
	Message  string `json:"message"`
}

// ProcessResultPayload is sent once a map has been fully processed.
type ProcessResultPayload struct {
	MapID       string           `json:"map_id"`
	LayoutID    string           `json:"layout_id,omitempty"`
	ShareCode   string           `json:"share_code,omitempty"`
	Stats       StatsInfo        `json:"stats"`
	Gateways    []GatewayInfo    `json:"gateways"`
	Equivalence map[string][]int `json:"equivalence,omitempty"` // Zone ID -> equivalent zone IDs
	ZoneMap     []byte           `json:"zone_map"`              // Binary zone map, base64 in JSON
}

// StatsInfo summarises a processing result.
type StatsInfo struct {
	Zones        int `json:"zones"`
	Gateways     int `json:"gateways"`
	WaterLinks   int `json:"water_links"`
	Links        int `json:"links"`
	Equivalences int `json:"equivalences"`
	LinkedZones  int `json:"linked_zones"`
}

// GatewayInfo describes one processed gateway.
type GatewayInfo struct {
	ID    uint32     `json:"id"`
	X1    int        `json:"x1"`
	Y1    int        `json:"y1"`
	X2    int        `json:"x2"`
	Y2    int        `json:"y2"`
	Zone1 uint32     `json:"zone1"`
	Zone2 uint32     `json:"zone2"`
	Flags uint8      `json:"flags,omitempty"`
	Side1 []LinkInfo `json:"side1,omitempty"`
	Side2 []LinkInfo `json:"side2,omitempty"`
}

// LinkInfo is one gateway graph edge.
type LinkInfo struct {
	Gateway  uint32  `json:"gateway"`
	Distance float64 `json:"distance"`
}

// ==================== Catalogue Payloads ====================

// MapListPayload lists the embedded sample maps.
type MapListPayload struct {
	Maps []MapInfo `json:"maps"`
}

// MapInfo contains basic map information for listing.
type MapInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	GatewayCount int    `json:"gateway_count"`
	ZoneCount    int    `json:"zone_count"`
}

// LayoutListPayload lists the stored layouts.
type LayoutListPayload struct {
	Layouts []LayoutInfo `json:"layouts"`
}

// LayoutInfo contains basic stored layout information for listing.
type LayoutInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ShareCode    string `json:"share_code"`
	MapID        string `json:"map_id,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	ZoneCount    int    `json:"zone_count"`
	GatewayCount int    `json:"gateway_count"`
	CreatedAt    int64  `json:"created_at"` // Unix milliseconds
}

// ==================== System Payloads ====================

// WelcomePayload is sent when a connection is established.
type WelcomePayload struct {
	Version string `json:"version"`
	Maps    int    `json:"maps"`
}

package types

import (
	"encoding/json"
	"strconv"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LonLat renders the point in the "lon,lat" order routing engines expect.
func (p GeoPoint) LonLat() string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

// RouteResult summarises the best driving route between two points.
type RouteResult struct {
	Source         GeoPoint        `json:"source"`
	Destination    GeoPoint        `json:"destination"`
	DistanceKm     float64         `json:"distance_km"`
	DurationHr     float64         `json:"duration_hr"`
	StraightLineKm float64         `json:"straight_line_km"`
	Geometry       json.RawMessage `json:"geometry"`
}

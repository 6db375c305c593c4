package domain

import "fmt"

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64
	Lon float64
}

// Valid reports whether both components are inside the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// SegmentKey identifies an origin-destination pair. Coordinates are rounded
// to four decimal places (~11m) so nearby lookups share cache entries.
func SegmentKey(from, to Coordinates) string {
	return fmt.Sprintf("%.4f,%.4f->%.4f,%.4f", from.Lat, from.Lon, to.Lat, to.Lon)
}

// BoundingBox is a rectangular operating region.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Contains reports whether the coordinates fall inside the box.
func (b BoundingBox) Contains(c Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// GreaterToronto is the default operating region for the service.
var GreaterToronto = BoundingBox{
	MinLat: 43.40,
	MaxLat: 44.00,
	MinLon: -79.80,
	MaxLon: -79.00,
}

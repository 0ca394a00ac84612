package mapview

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Basemaps offered by the tile providers.
const (
	BasemapOSM       = "osm"
	BasemapLightGray = "arcgis-light-gray"
)

// DefaultZoom frames the airport and its surroundings.
const DefaultZoom = 9

// ViewID identifies a map view created by a Backend.
type ViewID int

// MarkerID identifies a marker placed by a Backend.
type MarkerID int

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// ViewOptions describes a map view to create.
type ViewOptions struct {
	Center  Point
	Zoom    int
	Basemap string
	APIKey  string
}

// Symbol is how a marker is painted.
type Symbol struct {
	Color        string
	Size         float64
	OutlineColor string
	OutlineWidth float64
}

// Popup is shown for a selected marker. Content may reference attributes
// as {name}.
type Popup struct {
	Title   string
	Content string
}

// Attributes is the metadata attached to the airport marker.
type Attributes struct {
	Departures int
	Arrivals   int
}

// Fields exposes the attributes by the names popup templates use.
func (a Attributes) Fields() map[string]string {
	return map[string]string{
		"departures": strconv.Itoa(a.Departures),
		"arrivals":   strconv.Itoa(a.Arrivals),
	}
}

// Marker is a point graphic with attached attributes.
type Marker struct {
	Position   Point
	Symbol     Symbol
	Attributes Attributes
	Popup      Popup
}

// Backend is the mapping capability the widget drives. CreateView may
// block while map resources load.
type Backend interface {
	CreateView(ctx context.Context, opts ViewOptions) (ViewID, error)
	AddMarker(view ViewID, m Marker) (MarkerID, error)
	UpdateMarkerAttributes(marker MarkerID, attrs Attributes) error
	DestroyView(view ViewID) error
}

// Basemap picks the licensed basemap when an API key is available and the
// open-data one otherwise.
func Basemap(apiKey string) string {
	if strings.TrimSpace(apiKey) != "" {
		return BasemapLightGray
	}
	return BasemapOSM
}

// RenderPopup substitutes {name} fields in tmpl.
func RenderPopup(tmpl string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// AirportPopup is the popup used for the airport marker.
func AirportPopup(code, name string) Popup {
	return Popup{
		Title:   fmt.Sprintf("%s · %s", code, name),
		Content: "Departures: {departures}\nArrivals: {arrivals}\nClick refresh to update.",
	}
}

// AirportSymbol is the marker style for the monitored airport.
var AirportSymbol = Symbol{
	Color:        "#d2774a",
	Size:         12,
	OutlineColor: "#ffffff",
	OutlineWidth: 2,
}

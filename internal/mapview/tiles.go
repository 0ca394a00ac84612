package mapview

import (
	"fmt"
	"math"
	"net/url"
)

// TileSize is the edge length of a slippy-map tile in pixels.
const TileSize = 256

// Tile addresses one slippy-map tile.
type Tile struct {
	Z, X, Y int
}

// Placement is a tile and where its top-left corner lands in a viewport.
type Placement struct {
	Tile
	OffsetX, OffsetY float64
}

// worldPixel returns the Web Mercator pixel coordinate of p at zoom.
func worldPixel(p Point, zoom int) (float64, float64) {
	n := math.Exp2(float64(zoom)) * TileSize
	lat := math.Max(-85.05112878, math.Min(85.05112878, p.Latitude))
	latRad := lat * math.Pi / 180

	x := (p.Longitude + 180) / 360 * n
	y := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
	return x, y
}

// TileFor returns the tile containing p at zoom.
func TileFor(p Point, zoom int) Tile {
	x, y := worldPixel(p, zoom)
	return Tile{Z: zoom, X: int(math.Floor(x / TileSize)), Y: int(math.Floor(y / TileSize))}
}

// Project returns the viewport position of p for a w×h viewport centred
// on center.
func Project(center Point, zoom int, w, h float64, p Point) (float64, float64) {
	cx, cy := worldPixel(center, zoom)
	px, py := worldPixel(p, zoom)
	return w/2 + (px - cx), h/2 + (py - cy)
}

// Covering lists the tiles needed to fill a w×h viewport centred on center.
func Covering(center Point, zoom int, w, h float64) []Placement {
	cx, cy := worldPixel(center, zoom)
	left, top := cx-w/2, cy-h/2
	maxIndex := int(math.Exp2(float64(zoom))) - 1

	x0, x1 := int(math.Floor(left/TileSize)), int(math.Floor((left+w-1)/TileSize))
	y0, y1 := int(math.Floor(top/TileSize)), int(math.Floor((top+h-1)/TileSize))

	var out []Placement
	for ty := y0; ty <= y1; ty++ {
		if ty < 0 || ty > maxIndex {
			continue
		}
		for tx := x0; tx <= x1; tx++ {
			out = append(out, Placement{
				Tile:    Tile{Z: zoom, X: ((tx % (maxIndex + 1)) + maxIndex + 1) % (maxIndex + 1), Y: ty},
				OffsetX: float64(tx*TileSize) - left,
				OffsetY: float64(ty*TileSize) - top,
			})
		}
	}
	return out
}

// TileURL returns the download URL of t for basemap.
func TileURL(basemap, apiKey string, t Tile) string {
	switch basemap {
	case BasemapLightGray:
		u := fmt.Sprintf("https://services.arcgisonline.com/ArcGIS/rest/services/Canvas/World_Light_Gray_Base/MapServer/tile/%d/%d/%d", t.Z, t.Y, t.X)
		if apiKey != "" {
			u += "?" + url.Values{"token": {apiKey}}.Encode()
		}
		return u
	default:
		return fmt.Sprintf("https://tile.openstreetmap.org/%d/%d/%d.png", t.Z, t.X, t.Y)
	}
}

package ui

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/sync/errgroup"

	"github.com/subham/airportboard/internal/mapview"

	_ "image/jpeg"
	_ "image/png"
)

const userAgent = "airportboard/1.0"

// tileFetchConcurrency bounds parallel basemap downloads per view.
const tileFetchConcurrency = 4

// lakeShore is a simplified western Lake Michigan shoreline, north to
// south, used when basemap tiles cannot be downloaded. [lat, lon].
var lakeShore = [][2]float64{
	{42.80, -87.78}, {42.60, -87.81}, {42.45, -87.80}, {42.30, -87.82},
	{42.15, -87.74}, {42.06, -87.68}, {41.98, -87.65}, {41.90, -87.62},
	{41.85, -87.61}, {41.78, -87.57}, {41.72, -87.53}, {41.68, -87.49},
	{41.63, -87.42}, {41.61, -87.26}, {41.63, -87.05}, {41.68, -86.90},
	{41.75, -86.75},
}

type tileImage struct {
	place mapview.Placement
	src   image.Image
	img   *ebiten.Image
}

type mapView struct {
	opts  mapview.ViewOptions
	tiles []*tileImage
}

type mapMarker struct {
	view mapview.ViewID
	m    mapview.Marker
}

// MapRenderer draws the airport map inside a fixed screen region and
// implements mapview.Backend for it.
type MapRenderer struct {
	x, y, w, h float32

	client *http.Client
	logger *slog.Logger

	mu       sync.Mutex
	nextID   int
	views    map[mapview.ViewID]*mapView
	markers  map[mapview.MarkerID]*mapMarker
	active   mapview.ViewID
	selected bool
}

var _ mapview.Backend = (*MapRenderer)(nil)

// NewMapRenderer creates a map renderer for the given screen region.
func NewMapRenderer(x, y, w, h float32, client *http.Client, logger *slog.Logger) *MapRenderer {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MapRenderer{
		x:       x,
		y:       y,
		w:       w,
		h:       h,
		client:  client,
		logger:  logger.With("component", "map"),
		views:   make(map[mapview.ViewID]*mapView),
		markers: make(map[mapview.MarkerID]*mapMarker),
	}
}

// CreateView downloads the basemap tiles covering the region. Tiles that
// cannot be fetched are skipped; with none at all the view falls back to
// the vector shoreline.
func (m *MapRenderer) CreateView(ctx context.Context, opts mapview.ViewOptions) (mapview.ViewID, error) {
	places := mapview.Covering(opts.Center, opts.Zoom, float64(m.w), float64(m.h))
	tiles := make([]*tileImage, len(places))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tileFetchConcurrency)
	for i, p := range places {
		g.Go(func() error {
			u := mapview.TileURL(opts.Basemap, opts.APIKey, p.Tile)
			img, err := m.fetchImage(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				m.logger.Debug("tile unavailable", "z", p.Z, "x", p.X, "y", p.Y, "error", err)
				return nil
			}
			tiles[i] = &tileImage{place: p, src: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("loading basemap: %w", err)
	}

	loaded := tiles[:0]
	for _, t := range tiles {
		if t != nil {
			loaded = append(loaded, t)
		}
	}
	if len(loaded) == 0 {
		m.logger.Warn("basemap unavailable, drawing shoreline", "basemap", opts.Basemap)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := mapview.ViewID(m.nextID)
	m.views[id] = &mapView{opts: opts, tiles: loaded}
	m.active = id
	m.selected = false
	return id, nil
}

// AddMarker places m on view.
func (m *MapRenderer) AddMarker(view mapview.ViewID, mk mapview.Marker) (mapview.MarkerID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.views[view]; !ok {
		return 0, fmt.Errorf("map view %d does not exist", view)
	}
	m.nextID++
	id := mapview.MarkerID(m.nextID)
	m.markers[id] = &mapMarker{view: view, m: mk}
	return id, nil
}

// UpdateMarkerAttributes replaces a marker's attributes in place.
func (m *MapRenderer) UpdateMarkerAttributes(marker mapview.MarkerID, attrs mapview.Attributes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mk, ok := m.markers[marker]
	if !ok {
		return fmt.Errorf("map marker %d does not exist", marker)
	}
	mk.m.Attributes = attrs
	return nil
}

// DestroyView drops view, its markers and its tile images.
func (m *MapRenderer) DestroyView(view mapview.ViewID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.views[view]
	if !ok {
		return nil
	}
	for _, t := range v.tiles {
		if t.img != nil {
			t.img.Deallocate()
		}
	}
	delete(m.views, view)
	for id, mk := range m.markers {
		if mk.view == view {
			delete(m.markers, id)
		}
	}
	if m.active == view {
		m.active = 0
		m.selected = false
	}
	return nil
}

func (m *MapRenderer) fetchImage(ctx context.Context, imgURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding tile: %w", err)
	}
	return img, nil
}

// Contains reports whether the screen point lies in the map region.
func (m *MapRenderer) Contains(px, py int) bool {
	x, y := float32(px), float32(py)
	return x >= m.x && x < m.x+m.w && y >= m.y && y < m.y+m.h
}

// Click toggles the popup when the airport marker is hit.
func (m *MapRenderer) Click(px, py int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hitMarker(px, py) {
		m.selected = !m.selected
		return true
	}
	m.selected = false
	return false
}

// Must be called with mu held.
func (m *MapRenderer) hitMarker(px, py int) bool {
	v, ok := m.views[m.active]
	if !ok {
		return false
	}
	for _, mk := range m.markers {
		if mk.view != m.active {
			continue
		}
		sx, sy := m.toScreen(v, mk.m.Position)
		r := float64(mk.m.Symbol.Size) + 4
		if math.Hypot(float64(px)-float64(sx), float64(py)-float64(sy)) <= r {
			return true
		}
	}
	return false
}

func (m *MapRenderer) toScreen(v *mapView, p mapview.Point) (float32, float32) {
	sx, sy := mapview.Project(v.opts.Center, v.opts.Zoom, float64(m.w), float64(m.h), p)
	return m.x + float32(sx), m.y + float32(sy)
}

// Draw renders the active view. Popups show on hover or after a click.
func (m *MapRenderer) Draw(screen *ebiten.Image, face, faceSm *text.GoTextFace) {
	m.mu.Lock()
	defer m.mu.Unlock()

	region := screen.SubImage(image.Rect(int(m.x), int(m.y), int(m.x+m.w), int(m.y+m.h))).(*ebiten.Image)
	region.Fill(colorMapLand)

	v, ok := m.views[m.active]
	if !ok {
		drawTextCentered(region, "Loading map...", float64(m.x+m.w/2), float64(m.y+m.h/2)-8, face, colorMuted)
		return
	}

	if len(v.tiles) > 0 {
		m.drawTiles(region, v)
	} else {
		m.drawShoreline(region, v)
	}

	cx, cy := ebiten.CursorPosition()
	hovered := m.hitMarker(cx, cy)
	for _, mk := range m.markers {
		if mk.view != m.active {
			continue
		}
		x, y := m.toScreen(v, mk.m.Position)
		drawSymbol(region, x, y, mk.m.Symbol)
		if hovered || m.selected {
			m.drawPopup(region, x, y, mk.m, face, faceSm)
		}
	}

	attribution := "© OpenStreetMap contributors"
	if v.opts.Basemap == mapview.BasemapLightGray {
		attribution = "Esri, HERE, Garmin"
	}
	if len(v.tiles) == 0 {
		attribution = "Basemap offline"
	}
	drawText(region, attribution, float64(m.x+m.w)-textWidth(attribution, faceSm)-8, float64(m.y+m.h)-18, faceSm, colorMuted)
}

func (m *MapRenderer) drawTiles(dst *ebiten.Image, v *mapView) {
	for _, t := range v.tiles {
		if t.img == nil {
			t.img = ebiten.NewImageFromImage(t.src)
			t.src = nil
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(m.x)+t.place.OffsetX, float64(m.y)+t.place.OffsetY)
		dst.DrawImage(t.img, op)
	}
}

// drawShoreline fills the lake east of the shoreline, then strokes it.
func (m *MapRenderer) drawShoreline(dst *ebiten.Image, v *mapView) {
	shore := make([][2]float32, len(lakeShore))
	var path vector.Path
	for i, pt := range lakeShore {
		x, y := m.toScreen(v, mapview.Point{Latitude: pt[0], Longitude: pt[1]})
		shore[i] = [2]float32{x, y}
		if i == 0 {
			path.MoveTo(x, y)
		} else {
			path.LineTo(x, y)
		}
	}
	last := lakeShore[len(lakeShore)-1]
	first := lakeShore[0]
	for _, pt := range [][2]float64{{last[0], -85.0}, {first[0], -85.0}} {
		x, y := m.toScreen(v, mapview.Point{Latitude: pt[0], Longitude: pt[1]})
		path.LineTo(x, y)
	}
	path.Close()
	fillPath(dst, &path, colorMapWater)

	for i := 1; i < len(shore); i++ {
		vector.StrokeLine(dst, shore[i-1][0], shore[i-1][1], shore[i][0], shore[i][1], 2, colorShore, true)
	}
}

func (m *MapRenderer) drawPopup(dst *ebiten.Image, x, y float32, mk mapview.Marker, face, faceSm *text.GoTextFace) {
	body := strings.Split(mapview.RenderPopup(mk.Popup.Content, mk.Attributes.Fields()), "\n")

	w := textWidth(mk.Popup.Title, face)
	for _, line := range body {
		w = math.Max(w, textWidth(line, faceSm))
	}
	pw := float32(w) + 24
	ph := float32(36 + 18*len(body))
	px := x - pw/2
	py := y - ph - 16
	if py < m.y+4 {
		py = y + 16
	}
	px = float32(math.Max(float64(m.x+4), math.Min(float64(px), float64(m.x+m.w-pw-4))))

	drawRoundedRect(dst, px, py, pw, ph, 8, colorPopup)
	drawText(dst, mk.Popup.Title, float64(px)+12, float64(py)+10, face, colorInk)
	for i, line := range body {
		drawText(dst, line, float64(px)+12, float64(py)+34+float64(18*i), faceSm, colorInkMuted)
	}
}

func drawSymbol(dst *ebiten.Image, x, y float32, s mapview.Symbol) {
	r := float32(s.Size) / 2
	vector.DrawFilledCircle(dst, x, y, r*2.2, withAlpha(parseHex(s.Color), 0x40), true)
	vector.DrawFilledCircle(dst, x, y, r+float32(s.OutlineWidth), parseHex(s.OutlineColor), true)
	vector.DrawFilledCircle(dst, x, y, r, parseHex(s.Color), true)
}

// parseHex reads "#rrggbb"; anything else is white.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{0xff, 0xff, 0xff, 0xff}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{0xff, 0xff, 0xff, 0xff}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}

func withAlpha(c color.RGBA, a uint8) color.RGBA {
	scale := float64(a) / 255
	return color.RGBA{uint8(float64(c.R) * scale), uint8(float64(c.G) * scale), uint8(float64(c.B) * scale), a}
}

var (
	whiteOnce sync.Once
	whiteImg  *ebiten.Image
)

// whiteSubImage returns a 1x1 white image for use with DrawTriangles.
func whiteSubImage() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteImg = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteImg
}

func fillPath(dst *ebiten.Image, path *vector.Path, clr color.RGBA) {
	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	for i := range vs {
		vs[i].SrcX = 1
		vs[i].SrcY = 1
		vs[i].ColorR = float32(clr.R) / 255
		vs[i].ColorG = float32(clr.G) / 255
		vs[i].ColorB = float32(clr.B) / 255
		vs[i].ColorA = float32(clr.A) / 255
	}
	op := &ebiten.DrawTrianglesOptions{}
	op.AntiAlias = true
	dst.DrawTriangles(vs, is, whiteSubImage(), op)
}

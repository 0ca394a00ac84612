package ui

import (
	"image/color"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/subham/airportboard/internal/chart"
	"github.com/subham/airportboard/internal/mapview"
	"github.com/subham/airportboard/internal/summary"
)

var barColors = map[string]color.RGBA{
	summary.DeparturesLabel: colorAccent,
	summary.ArrivalsLabel:   colorBlue,
}

func chartData(s summary.Summary) []chart.Datum {
	out := make([]chart.Datum, len(s.Data))
	for i, d := range s.Data {
		out[i] = chart.Datum{Label: d.Label, Value: float64(d.Value)}
	}
	return out
}

func markerAttributes(s summary.Summary) mapview.Attributes {
	return mapview.Attributes{Departures: s.Data[0].Value, Arrivals: s.Data[1].Value}
}

// drawChart paints c with its mount's origin at (ox, oy).
func (g *Game) drawChart(screen *ebiten.Image, c *chart.Chart, ox, oy float32, now time.Time) {
	if !c.Drawn() {
		return
	}
	m := c.Mount()
	left := ox + float32(m.Margin.Left)
	right := ox + float32(m.Width-m.Margin.Right)

	for _, t := range c.YTicks() {
		y := oy + float32(t.Pos)
		vector.StrokeLine(screen, left, y, right, y, 1, colorPanelEdge, false)
		drawTextRight(screen, strconv.FormatFloat(t.Value, 'f', -1, 64), float64(left)-6, float64(y)-7, g.fontFaceSm, colorMuted)
	}

	base := oy + float32(c.Baseline())
	vector.StrokeLine(screen, left, base, right, base, 1, colorMuted, false)

	for _, b := range c.Bars(now) {
		r := b.Rect
		clr, ok := barColors[b.Label]
		if !ok {
			clr = colorAccent
		}
		x, y := ox+float32(r.X), oy+float32(r.Y)
		if r.H > 0 {
			vector.DrawFilledRect(screen, x, y, float32(r.W), float32(r.H), clr, true)
		}
		drawTextCentered(screen, strconv.FormatFloat(b.Value, 'f', -1, 64), float64(x)+r.W/2, float64(y)-18, g.fontFaceSm, colorText)
	}

	for _, l := range c.XTicks() {
		drawTextCentered(screen, l.Label, float64(ox)+l.Pos, float64(base)+8, g.fontFaceSm, colorMuted)
	}
}

// Package chart keeps the geometry of an animated bar chart. Bars are keyed
// by label, so redrawing with the same labels moves the existing bars
// instead of adding new ones. Drawing the geometry is left to the caller.
package chart

import (
	"math"
	"sync"
	"time"
)

// Defaults match the dashboard's traffic card.
const (
	DefaultWidth    = 320
	DefaultHeight   = 180
	DefaultPadding  = 0.4
	DefaultDuration = 500 * time.Millisecond
	yTickCount      = 4
)

// DefaultMargin leaves room for the axes.
var DefaultMargin = Margin{Top: 20, Right: 20, Bottom: 40, Left: 40}

// Datum is one labelled value.
type Datum struct {
	Label string
	Value float64
}

// Margin is the space around the plot area.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Mount is the drawing surface the chart lives on.
type Mount struct {
	Width, Height float64
	Margin        Margin
}

// Rect is an axis-aligned rectangle in mount coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Bar is the drawable state of one bar at a given instant.
type Bar struct {
	ID    int
	Label string
	Value float64
	Rect  Rect
}

// Tick is a value-axis position in mount coordinates.
type Tick struct {
	Value float64
	Pos   float64
}

// AxisLabel is a band-axis label position in mount coordinates.
type AxisLabel struct {
	Label string
	Pos   float64
}

type bar struct {
	id    int
	label string
	value float64
	from  Rect
	to    Rect
	start time.Time
}

// Chart holds the bars drawn on one mount.
type Chart struct {
	mount    Mount
	padding  float64
	duration time.Duration

	mu     sync.Mutex
	bars   []*bar
	x      BandScale
	y      LinearScale
	nextID int
	drawn  bool
}

// New creates an empty chart on mount.
func New(mount Mount) *Chart {
	return &Chart{
		mount:    mount,
		padding:  DefaultPadding,
		duration: DefaultDuration,
		y:        NewLinearScale(0, 1, 0, 0),
	}
}

// Mount returns the chart's drawing surface.
func (c *Chart) Mount() Mount { return c.mount }

func (c *Chart) plotSize() (float64, float64) {
	m := c.mount.Margin
	return c.mount.Width - m.Left - m.Right, c.mount.Height - m.Top - m.Bottom
}

// Render sets the data shown by the chart. Bars whose label is already
// present transition from where they currently are; new labels grow from
// the baseline; labels no longer present are removed. It reports false and
// changes nothing when the mount has no drawable area.
func (c *Chart) Render(data []Datum, now time.Time) bool {
	w, h := c.plotSize()
	if w <= 0 || h <= 0 {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	labels := make([]string, len(data))
	maxValue := 1.0
	for i, d := range data {
		labels[i] = d.Label
		maxValue = math.Max(maxValue, d.Value)
	}
	c.x = NewBandScale(labels, 0, w, c.padding)
	c.y = NewLinearScale(0, maxValue, h, 0).Nice(10)

	existing := make(map[string]*bar, len(c.bars))
	for _, b := range c.bars {
		existing[b.label] = b
	}

	next := make([]*bar, 0, len(data))
	for _, d := range data {
		if _, seen := find(next, d.Label); seen {
			continue
		}
		target := c.target(d)
		if b, ok := existing[d.Label]; ok {
			b.from = b.at(now, c.duration)
			b.to = target
			b.value = d.Value
			b.start = now
			next = append(next, b)
			continue
		}
		c.nextID++
		next = append(next, &bar{
			id:    c.nextID,
			label: d.Label,
			value: d.Value,
			from:  Rect{X: target.X, Y: c.mount.Margin.Top + h, W: target.W, H: 0},
			to:    target,
			start: now,
		})
	}
	c.bars = next
	c.drawn = true
	return true
}

func (c *Chart) target(d Datum) Rect {
	_, h := c.plotSize()
	m := c.mount.Margin
	x, _ := c.x.Position(d.Label)
	y := c.y.Map(d.Value)
	return Rect{
		X: m.Left + x,
		Y: m.Top + y,
		W: c.x.Bandwidth(),
		H: h - y,
	}
}

func find(bars []*bar, label string) (*bar, bool) {
	for _, b := range bars {
		if b.label == label {
			return b, true
		}
	}
	return nil, false
}

// Bars returns every bar's geometry at now, in data order.
func (c *Chart) Bars(now time.Time) []Bar {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Bar, len(c.bars))
	for i, b := range c.bars {
		out[i] = Bar{ID: b.id, Label: b.label, Value: b.value, Rect: b.at(now, c.duration)}
	}
	return out
}

// Animating reports whether any bar is still mid-transition at now.
func (c *Chart) Animating(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.bars {
		if now.Sub(b.start) < c.duration {
			return true
		}
	}
	return false
}

// Domain returns the value domain of the y scale.
func (c *Chart) Domain() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.y.Domain()
}

// Drawn reports whether Render has succeeded at least once.
func (c *Chart) Drawn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawn
}

// YTicks returns the value-axis ticks.
func (c *Chart) YTicks() []Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ticks []Tick
	for _, v := range c.y.Ticks(yTickCount) {
		ticks = append(ticks, Tick{Value: v, Pos: c.mount.Margin.Top + c.y.Map(v)})
	}
	return ticks
}

// XTicks returns the centre of each band in data order.
func (c *Chart) XTicks() []AxisLabel {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AxisLabel, 0, len(c.bars))
	for _, b := range c.bars {
		x, _ := c.x.Position(b.label)
		out = append(out, AxisLabel{Label: b.label, Pos: c.mount.Margin.Left + x + c.x.Bandwidth()/2})
	}
	return out
}

// Baseline returns the y coordinate of the zero line.
func (c *Chart) Baseline() float64 {
	_, h := c.plotSize()
	return c.mount.Margin.Top + h
}

func (b *bar) at(now time.Time, d time.Duration) Rect {
	if d <= 0 {
		return b.to
	}
	t := float64(now.Sub(b.start)) / float64(d)
	if t >= 1 {
		return b.to
	}
	if t <= 0 {
		return b.from
	}
	k := cubicInOut(t)
	return Rect{
		X: lerp(b.from.X, b.to.X, k),
		Y: lerp(b.from.Y, b.to.Y, k),
		W: lerp(b.from.W, b.to.W, k),
		H: lerp(b.from.H, b.to.H, k),
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func cubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

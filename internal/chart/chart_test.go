package chart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func newTestChart() *Chart {
	return New(Mount{Width: DefaultWidth, Height: DefaultHeight, Margin: DefaultMargin})
}

func barByLabel(t *testing.T, bars []Bar, label string) Bar {
	t.Helper()
	for _, b := range bars {
		if b.Label == label {
			return b
		}
	}
	t.Fatalf("no bar %q", label)
	return Bar{}
}

func TestZeroDataUsesUnitDomain(t *testing.T) {
	c := newTestChart()
	require.True(t, c.Render([]Datum{{"A", 0}, {"B", 0}}, t0))

	lo, hi := c.Domain()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)

	bars := c.Bars(t0.Add(time.Second))
	require.Len(t, bars, 2)
	for _, b := range bars {
		assert.Zero(t, b.Rect.H)
		assert.Equal(t, c.Baseline(), b.Rect.Y)
	}
}

func TestRerenderUpdatesInPlace(t *testing.T) {
	c := newTestChart()
	c.Render([]Datum{{"A", 0}, {"B", 0}}, t0)
	first := c.Bars(t0)

	t1 := t0.Add(time.Second)
	require.True(t, c.Render([]Datum{{"A", 7}, {"B", 2}}, t1))

	lo, hi := c.Domain()
	assert.Equal(t, 0.0, lo)
	assert.InDelta(t, 7.0, hi, 1e-9)

	mid := c.Bars(t1.Add(DefaultDuration / 2))
	require.Len(t, mid, 2)
	assert.InDelta(t, 60.0, barByLabel(t, mid, "A").Rect.H, 1e-9)
	assert.True(t, c.Animating(t1.Add(DefaultDuration/2)))

	done := c.Bars(t1.Add(DefaultDuration))
	require.Len(t, done, 2)
	assert.False(t, c.Animating(t1.Add(DefaultDuration)))

	a, b := barByLabel(t, done, "A"), barByLabel(t, done, "B")
	assert.Equal(t, barByLabel(t, first, "A").ID, a.ID)
	assert.Equal(t, barByLabel(t, first, "B").ID, b.ID)
	assert.InDelta(t, 120.0, a.Rect.H, 1e-9)
	assert.InDelta(t, 120.0*2/7, b.Rect.H, 1e-9)
	assert.InDelta(t, DefaultMargin.Top, a.Rect.Y, 1e-9)
	assert.Equal(t, 7.0, a.Value)
}

func TestRepeatedRenderDoesNotDuplicate(t *testing.T) {
	c := newTestChart()
	data := []Datum{{"Departures", 3}, {"Arrivals", 5}}
	for i := 0; i < 5; i++ {
		c.Render(data, t0.Add(time.Duration(i)*time.Second))
	}
	bars := c.Bars(t0.Add(10 * time.Second))
	require.Len(t, bars, 2)
	assert.Equal(t, "Departures", bars[0].Label)
	assert.Equal(t, "Arrivals", bars[1].Label)
}

func TestNewLabelSetReplacesBars(t *testing.T) {
	c := newTestChart()
	c.Render([]Datum{{"A", 1}, {"B", 2}}, t0)
	old := c.Bars(t0)

	c.Render([]Datum{{"C", 3}}, t0.Add(time.Second))
	bars := c.Bars(t0.Add(2 * time.Second))
	require.Len(t, bars, 1)
	assert.Equal(t, "C", bars[0].Label)
	for _, o := range old {
		assert.NotEqual(t, o.ID, bars[0].ID)
	}
}

func TestEnteringBarGrowsFromBaseline(t *testing.T) {
	c := newTestChart()
	c.Render([]Datum{{"A", 4}}, t0)
	b := c.Bars(t0)[0]
	assert.Zero(t, b.Rect.H)
	assert.Equal(t, c.Baseline(), b.Rect.Y)
}

func TestRenderWithoutDrawableArea(t *testing.T) {
	c := New(Mount{Width: 30, Height: 30, Margin: DefaultMargin})
	assert.False(t, c.Render([]Datum{{"A", 1}}, t0))
	assert.False(t, c.Drawn())
	assert.Empty(t, c.Bars(t0))
}

func TestBandScale(t *testing.T) {
	b := NewBandScale([]string{"A", "B"}, 0, 260, 0.4)
	assert.InDelta(t, 65.0, b.Bandwidth(), 1e-9)

	a, ok := b.Position("A")
	require.True(t, ok)
	assert.InDelta(t, 43.3333333, a, 1e-6)

	bp, _ := b.Position("B")
	assert.InDelta(t, 151.6666667, bp, 1e-6)

	_, ok = b.Position("C")
	assert.False(t, ok)
}

func TestLinearScaleNiceAndTicks(t *testing.T) {
	s := NewLinearScale(0, 23, 100, 0).Nice(10)
	lo, hi := s.Domain()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 24.0, hi)
	assert.InDelta(t, 50.0, s.Map(12), 1e-9)

	unit := NewLinearScale(0, 1, 100, 0).Nice(10)
	assert.Equal(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, unit.Ticks(4))

	assert.Equal(t, []float64{0, 5, 10, 15, 20}, NewLinearScale(0, 20, 1, 0).Ticks(4))
}

func TestAxes(t *testing.T) {
	c := newTestChart()
	c.Render([]Datum{{"Departures", 3}, {"Arrivals", 5}}, t0)

	xt := c.XTicks()
	require.Len(t, xt, 2)
	assert.Equal(t, "Departures", xt[0].Label)
	assert.Less(t, xt[0].Pos, xt[1].Pos)

	yt := c.YTicks()
	require.NotEmpty(t, yt)
	assert.Equal(t, 0.0, yt[0].Value)
	assert.Equal(t, c.Baseline(), yt[0].Pos)
}

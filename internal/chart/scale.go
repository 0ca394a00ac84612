package chart

import "math"

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// BandScale maps discrete labels onto evenly spaced bands of a range.
type BandScale struct {
	index     map[string]int
	start     float64
	step      float64
	bandwidth float64
}

// NewBandScale lays labels out across [start, stop] with the same inner
// and outer padding fraction, centred in the range.
func NewBandScale(labels []string, start, stop, padding float64) BandScale {
	n := float64(len(labels))
	step := (stop - start) / math.Max(1, n-padding+padding*2)
	start += (stop - start - step*(n-padding)) * 0.5

	idx := make(map[string]int, len(labels))
	for i, l := range labels {
		idx[l] = i
	}
	return BandScale{
		index:     idx,
		start:     start,
		step:      step,
		bandwidth: step * (1 - padding),
	}
}

// Position returns the left edge of label's band.
func (b BandScale) Position(label string) (float64, bool) {
	i, ok := b.index[label]
	if !ok {
		return 0, false
	}
	return b.start + b.step*float64(i), true
}

// Bandwidth returns the width of every band.
func (b BandScale) Bandwidth() float64 { return b.bandwidth }

// LinearScale maps a continuous domain onto a continuous range.
type LinearScale struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinearScale creates a scale from [d0, d1] to [r0, r1].
func NewLinearScale(d0, d1, r0, r1 float64) LinearScale {
	return LinearScale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Map converts a domain value to the range.
func (s LinearScale) Map(v float64) float64 {
	if s.d1 == s.d0 {
		return (s.r0 + s.r1) / 2
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}

// Domain returns the domain bounds.
func (s LinearScale) Domain() (float64, float64) { return s.d0, s.d1 }

// Nice extends the domain to round tick boundaries.
func (s LinearScale) Nice(count int) LinearScale {
	start, stop := s.d0, s.d1
	if start == stop || count <= 0 {
		return s
	}
	var prestep float64
	for iter := 0; iter < 10; iter++ {
		step := tickIncrement(start, stop, count)
		if step == prestep {
			break
		}
		switch {
		case step > 0:
			start = math.Floor(start/step) * step
			stop = math.Ceil(stop/step) * step
		case step < 0:
			start = math.Ceil(start*step) / step
			stop = math.Floor(stop*step) / step
		default:
			return NewLinearScale(start, stop, s.r0, s.r1)
		}
		prestep = step
	}
	return NewLinearScale(start, stop, s.r0, s.r1)
}

// Ticks returns roughly count round values spanning the domain.
func (s LinearScale) Ticks(count int) []float64 {
	start, stop := s.d0, s.d1
	if start == stop || count <= 0 {
		return []float64{start}
	}
	inc := tickIncrement(start, stop, count)
	if inc == 0 || math.IsInf(inc, 0) || math.IsNaN(inc) {
		return nil
	}

	var ticks []float64
	if inc > 0 {
		i0, i1 := math.Ceil(start/inc), math.Floor(stop/inc)
		for i := i0; i <= i1; i++ {
			ticks = append(ticks, i*inc)
		}
		return ticks
	}
	inv := -inc
	i0, i1 := math.Ceil(start*inv), math.Floor(stop*inv)
	for i := i0; i <= i1; i++ {
		ticks = append(ticks, i/inv)
	}
	return ticks
}

// tickIncrement returns the tick step for [start, stop]. Negative results
// encode 1/step to keep sub-unit steps exact.
func tickIncrement(start, stop float64, count int) float64 {
	step := (stop - start) / math.Max(0, float64(count))
	power := math.Floor(math.Log10(step))
	e := step / math.Pow(10, power)

	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power < 0 {
		return -math.Pow(10, -power) / factor
	}
	return factor * math.Pow(10, power)
}

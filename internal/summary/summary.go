// Package summary derives the dashboard's counts and merged flight list
// from the current departures and arrivals.
package summary

import (
	"sort"
	"time"

	"github.com/subham/airportboard/internal/flights"
	"github.com/subham/airportboard/internal/format"
)

const (
	// Window is the look-ahead used for the "next 24h" counts.
	Window = 24 * time.Hour

	// LatestCap bounds the merged latest-flights list.
	LatestCap = 20
)

// Labels of the two summary data, in their fixed order.
const (
	DeparturesLabel = "Departures"
	ArrivalsLabel   = "Arrivals"
)

// Datum is one labelled count fed to the chart and the map.
type Datum struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// TaggedFlight is a flight with its direction and resolved scheduled time
// in Unix milliseconds (0 when missing or unparseable).
type TaggedFlight struct {
	flights.Flight
	Type          flights.Direction `json:"-"`
	TypeLabel     string            `json:"type"`
	ScheduledTime int64             `json:"scheduled_time"`
}

// Summary is everything derived from one pair of lists.
type Summary struct {
	DeparturesNext24h int            `json:"departures_next_24h"`
	ArrivalsNext24h   int            `json:"arrivals_next_24h"`
	TotalNext24h      int            `json:"total_next_24h"`
	Data              [2]Datum       `json:"data"`
	Latest            []TaggedFlight `json:"latest"`
}

// Compute derives the summary for departures and arrivals at instant now.
// Scheduled times without a zone are read in now's location.
func Compute(departures, arrivals []flights.Flight, now time.Time) Summary {
	deps := CountWithin(departures, now, Window)
	arrs := CountWithin(arrivals, now, Window)

	return Summary{
		DeparturesNext24h: deps,
		ArrivalsNext24h:   arrs,
		TotalNext24h:      deps + arrs,
		Data:              Data(deps, arrs),
		Latest:            Latest(departures, arrivals, LatestCap, now.Location()),
	}
}

// Data builds the ordered [Departures, Arrivals] pair.
func Data(departures, arrivals int) [2]Datum {
	return [2]Datum{
		{Label: DeparturesLabel, Value: departures},
		{Label: ArrivalsLabel, Value: arrivals},
	}
}

// CountWithin counts flights scheduled in [now, now+window], both ends
// inclusive. Flights without a parseable scheduled time are skipped.
func CountWithin(list []flights.Flight, now time.Time, window time.Duration) int {
	f := format.New(now.Location())
	lo := now.UnixMilli()
	hi := now.Add(window).UnixMilli()

	n := 0
	for i := range list {
		t, ok := f.ParseScheduled(list[i].ScheduledValue())
		if !ok {
			continue
		}
		ms := t.UnixMilli()
		if ms >= lo && ms <= hi {
			n++
		}
	}
	return n
}

// ResolveTime returns the flight's scheduled time in Unix milliseconds, or 0.
// Zoneless values are read in loc.
func ResolveTime(f *flights.Flight, loc *time.Location) int64 {
	t, ok := format.New(loc).ParseScheduled(f.ScheduledValue())
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// Latest merges departures then arrivals, sorts them newest first and keeps
// at most limit entries. Equal times keep their input order.
func Latest(departures, arrivals []flights.Flight, limit int, loc *time.Location) []TaggedFlight {
	combined := make([]TaggedFlight, 0, len(departures)+len(arrivals))
	for i := range departures {
		combined = append(combined, tag(departures[i], flights.Departure, loc))
	}
	for i := range arrivals {
		combined = append(combined, tag(arrivals[i], flights.Arrival, loc))
	}

	sort.SliceStable(combined, func(a, b int) bool {
		return combined[a].ScheduledTime > combined[b].ScheduledTime
	})

	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}

func tag(f flights.Flight, dir flights.Direction, loc *time.Location) TaggedFlight {
	return TaggedFlight{
		Flight:        f,
		Type:          dir,
		TypeLabel:     dir.String(),
		ScheduledTime: ResolveTime(&f, loc),
	}
}

// Equal reports whether two summaries carry the same counts. Latest is
// not compared.
func (s Summary) Equal(o Summary) bool {
	return s.Data == o.Data
}

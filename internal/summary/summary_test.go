package summary

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subham/airportboard/internal/flights"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func flight(number string, scheduled *time.Time) flights.Flight {
	f := flights.Flight{FlightNumber: number, Airline: "Test Air", Status: "scheduled"}
	if scheduled != nil {
		s := scheduled.Format(time.RFC3339Nano)
		f.Scheduled = &s
	}
	return f
}

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func raw(number, scheduled string) flights.Flight {
	return flights.Flight{FlightNumber: number, Scheduled: &scheduled}
}

func TestCountWithinInclusiveBounds(t *testing.T) {
	list := []flights.Flight{
		flight("start", at(0)),
		flight("end", at(Window)),
		flight("inside", at(3*time.Hour)),
		flight("past", at(-time.Millisecond)),
		flight("beyond", at(Window+time.Millisecond)),
		flight("missing", nil),
		raw("garbage", "not-a-date"),
		raw("empty", ""),
	}

	assert.Equal(t, 3, CountWithin(list, now, Window))
}

func TestComputeCountsAndOrder(t *testing.T) {
	deps := []flights.Flight{flight("D1", at(time.Hour)), flight("D2", at(2*time.Hour)), flight("D3", at(48*time.Hour))}
	arrs := []flights.Flight{flight("A1", at(30*time.Minute))}

	s := Compute(deps, arrs, now)
	assert.Equal(t, 2, s.DeparturesNext24h)
	assert.Equal(t, 1, s.ArrivalsNext24h)
	assert.Equal(t, 3, s.TotalNext24h)
	assert.Equal(t, [2]Datum{{DeparturesLabel, 2}, {ArrivalsLabel, 1}}, s.Data)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, nil, now)
	assert.Zero(t, s.TotalNext24h)
	assert.Equal(t, DeparturesLabel, s.Data[0].Label)
	assert.Equal(t, ArrivalsLabel, s.Data[1].Label)
	assert.Empty(t, s.Latest)
}

func TestLatestSortedAndTagged(t *testing.T) {
	deps := []flights.Flight{flight("D-old", at(-time.Hour)), flight("D-new", at(5*time.Hour)), flight("D-none", nil)}
	arrs := []flights.Flight{flight("A-mid", at(time.Hour)), raw("A-bad", "??")}

	latest := Latest(deps, arrs, LatestCap, time.UTC)
	require.Len(t, latest, 5)

	var order []string
	for _, f := range latest {
		order = append(order, f.FlightNumber)
	}
	assert.Equal(t, []string{"D-new", "A-mid", "D-old", "D-none", "A-bad"}, order)

	assert.Equal(t, flights.Departure, latest[0].Type)
	assert.Equal(t, "Departure", latest[0].TypeLabel)
	assert.Equal(t, flights.Arrival, latest[1].Type)
	assert.Equal(t, now.Add(5*time.Hour).UnixMilli(), latest[0].ScheduledTime)
	assert.Zero(t, latest[3].ScheduledTime)
	assert.Zero(t, latest[4].ScheduledTime)
}

func TestLatestStableForEqualTimes(t *testing.T) {
	same := at(time.Hour)
	deps := []flights.Flight{flight("D1", same), flight("D2", same)}
	arrs := []flights.Flight{flight("A1", same), flight("A2", same)}

	latest := Latest(deps, arrs, LatestCap, time.UTC)
	var order []string
	for _, f := range latest {
		order = append(order, f.FlightNumber)
	}
	assert.Equal(t, []string{"D1", "D2", "A1", "A2"}, order)
}

func TestLatestCap(t *testing.T) {
	for _, tc := range []struct{ deps, arrs int }{{0, 0}, {3, 4}, {10, 10}, {15, 15}, {30, 0}} {
		t.Run(fmt.Sprintf("%d+%d", tc.deps, tc.arrs), func(t *testing.T) {
			var deps, arrs []flights.Flight
			for i := 0; i < tc.deps; i++ {
				deps = append(deps, flight(fmt.Sprintf("D%d", i), at(time.Duration(i)*time.Minute)))
			}
			for i := 0; i < tc.arrs; i++ {
				arrs = append(arrs, flight(fmt.Sprintf("A%d", i), at(time.Duration(i)*time.Second)))
			}

			latest := Compute(deps, arrs, now).Latest
			assert.Len(t, latest, min(LatestCap, tc.deps+tc.arrs))
			for i := 1; i < len(latest); i++ {
				assert.GreaterOrEqual(t, latest[i-1].ScheduledTime, latest[i].ScheduledTime)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	a := Summary{Data: Data(3, 5)}
	b := Summary{Data: Data(3, 5), Latest: []TaggedFlight{{}}}
	c := Summary{Data: Data(3, 0)}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestZonelessScheduleReadInNowLocation(t *testing.T) {
	chicago := time.FixedZone("CDT", -5*60*60)
	local := now.In(chicago) // 07:00 CDT

	// 08:00 wall clock is an hour ahead in Chicago but four hours in the
	// past when read as UTC.
	deps := []flights.Flight{raw("D1", "2026-10-15T08:00:00")}

	assert.Equal(t, 1, Compute(deps, nil, local).DeparturesNext24h)
	assert.Zero(t, Compute(deps, nil, now).DeparturesNext24h)
	assert.Equal(t, now.Add(time.Hour).UnixMilli(), ResolveTime(&deps[0], chicago))
}

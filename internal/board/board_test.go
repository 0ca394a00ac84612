package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subham/airportboard/internal/flights"
	"github.com/subham/airportboard/internal/format"
	"github.com/subham/airportboard/internal/summary"
	"github.com/subham/airportboard/internal/tracker"
)

func str(s string) *string { return &s }

func TestBuild(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := now.Add(-3 * time.Minute)

	deps := []flights.Flight{{
		FlightNumber: "UA1", Airline: "United", Status: "scheduled",
		Destination: "SFO", Scheduled: str("2025-03-01T14:30:00+00:00"),
		Terminal: str("1"), Gate: str("B12"),
	}}
	arrs := []flights.Flight{{
		FlightNumber: "AA2", Airline: "American", Status: "landed",
		Origin: "DFW", Scheduled: str("2025-03-01T13:05:00+00:00"),
	}}
	st := tracker.State{Departures: deps, Arrivals: arrs, LastUpdated: &updated, Limit: 25}
	s := summary.Compute(deps, arrs, now)

	v := Build(format.New(time.UTC), "ORD", st, s, now)

	assert.Equal(t, "ORD arrivals & departures", v.Title)
	assert.Equal(t, "11:57", v.LastUpdate)
	assert.Equal(t, "3 minutes ago", v.UpdatedAgo)
	assert.Equal(t, "2", v.Cards[0].Value)
	assert.Equal(t, "Next 24h departures", v.Cards[1].Label)
	assert.Equal(t, "1", v.Cards[1].Value)
	assert.Equal(t, "1", v.Cards[2].Value)
	assert.Equal(t, "Latest 20 flights", v.ListTitle)
	assert.Equal(t, "2 flights", v.ListCount)
	assert.Empty(t, v.Empty)
	assert.Equal(t, "Refresh now", v.RefreshText)
	assert.Equal(t, 25, v.Limit)

	require.Len(t, v.Rows, 2)
	assert.Equal(t, Row{
		FlightNumber: "UA1", Airline: "United", Badge: "Departure · scheduled",
		Route: "To SFO", When: "Mar 01 14:30", Location: "Terminal 1 • Gate B12",
	}, v.Rows[0])
	assert.Equal(t, "From DFW", v.Rows[1].Route)
	assert.Equal(t, "Arrival · landed", v.Rows[1].Badge)
	assert.Equal(t, "Terminal -- • Gate --", v.Rows[1].Location)
}

func TestBuildEmptyAndError(t *testing.T) {
	now := time.Now()
	st := tracker.State{Error: "Unable to fetch Aviationstack data.", Refreshing: true, Limit: 5}
	v := Build(format.New(nil), "ORD", st, summary.Compute(nil, nil, now), now)

	assert.Equal(t, EmptyText, v.Empty)
	assert.Empty(t, v.Rows)
	assert.Equal(t, "Unable to fetch Aviationstack data.", v.Error)
	assert.Equal(t, format.Placeholder, v.LastUpdate)
	assert.Equal(t, "Refreshing...", v.RefreshText)
	assert.Equal(t, "0", v.Cards[0].Value)
}

func TestBuildUnparseableSchedule(t *testing.T) {
	now := time.Now()
	deps := []flights.Flight{{FlightNumber: "X", Scheduled: str("soon")}}
	v := Build(format.New(nil), "ORD", tracker.State{Departures: deps}, summary.Compute(deps, nil, now), now)

	require.Len(t, v.Rows, 1)
	assert.Equal(t, "-- --", v.Rows[0].When)
	assert.Equal(t, "0", v.Cards[1].Value)
}

func TestBuildDisplayZone(t *testing.T) {
	chicago := time.FixedZone("CDT", -5*60*60)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).In(chicago)
	updated := now.Add(-time.Minute)
	deps := []flights.Flight{
		{FlightNumber: "UA1", Scheduled: str("2025-03-01T14:30:00+00:00")},
		{FlightNumber: "UA2", Scheduled: str("2025-03-01T08:15:00")},
	}
	st := tracker.State{Departures: deps, LastUpdated: &updated}

	v := Build(format.New(chicago), "ORD", st, summary.Compute(deps, nil, now), now)

	assert.Equal(t, "06:59", v.LastUpdate)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "Mar 01 09:30", v.Rows[0].When)
	assert.Equal(t, "Mar 01 08:15", v.Rows[1].When, "zoneless values keep their wall clock")
	assert.Equal(t, "2", v.Cards[1].Value)
}

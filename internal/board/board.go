// Package board turns tracker state and its summary into the strings the
// dashboard draws.
package board

import (
	"fmt"
	"time"

	"github.com/subham/airportboard/internal/format"
	"github.com/subham/airportboard/internal/summary"
	"github.com/subham/airportboard/internal/tracker"
)

// EmptyText is shown when there are no flights to list.
const EmptyText = "No flights found."

// Card is one summary tile.
type Card struct {
	Label string
	Value string
	Meta  string
}

// Row is one entry of the latest-flights list.
type Row struct {
	FlightNumber string
	Airline      string
	Badge        string
	Route        string
	When         string
	Location     string
}

// View is the fully rendered dashboard text.
type View struct {
	Airport     string
	Title       string
	LastUpdate  string
	UpdatedAgo  string
	Cards       [3]Card
	Error       string
	ListTitle   string
	ListCount   string
	Rows        []Row
	Empty       string
	Refreshing  bool
	RefreshText string
	Limit       int
}

// Build renders st and its summary s for airport at instant now. Times are
// shown in fm's zone.
func Build(fm format.Formatter, airport string, st tracker.State, s summary.Summary, now time.Time) View {
	v := View{
		Airport:    airport,
		Title:      fmt.Sprintf("%s arrivals & departures", airport),
		LastUpdate: fm.Clock(st.LastUpdated),
		UpdatedAgo: format.Ago(st.LastUpdated, now),
		Cards: [3]Card{
			{Label: "Next 24h total", Value: format.Count(s.TotalNext24h), Meta: "Scheduled within 24 hours"},
			{Label: "Next 24h departures", Value: format.Count(s.DeparturesNext24h), Meta: "Outbound activity"},
			{Label: "Next 24h arrivals", Value: format.Count(s.ArrivalsNext24h), Meta: "Inbound activity"},
		},
		Error:       st.Error,
		ListTitle:   fmt.Sprintf("Latest %d flights", summary.LatestCap),
		ListCount:   fmt.Sprintf("%d flights", len(s.Latest)),
		Refreshing:  st.Refreshing,
		RefreshText: "Refresh now",
		Limit:       st.Limit,
	}
	if st.Refreshing {
		v.RefreshText = "Refreshing..."
	}

	if len(s.Latest) == 0 {
		v.Empty = EmptyText
		return v
	}
	v.Rows = make([]Row, 0, len(s.Latest))
	for i := range s.Latest {
		v.Rows = append(v.Rows, row(fm, &s.Latest[i]))
	}
	return v
}

func row(fm format.Formatter, f *summary.TaggedFlight) Row {
	sched := f.ScheduledValue()
	return Row{
		FlightNumber: f.FlightNumber,
		Airline:      f.Airline,
		Badge:        fmt.Sprintf("%s · %s", f.TypeLabel, f.Status),
		Route:        f.Route(f.Type),
		When:         fm.Date(sched) + " " + fm.Time(sched),
		Location: fmt.Sprintf("Terminal %s • Gate %s",
			format.OrPlaceholder(f.TerminalValue()), format.OrPlaceholder(f.GateValue())),
	}
}

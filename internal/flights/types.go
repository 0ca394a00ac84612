package flights

import "strings"

// Direction tags a flight as leaving from or arriving at the monitored airport.
type Direction int

const (
	Departure Direction = iota
	Arrival
)

func (d Direction) String() string {
	if d == Arrival {
		return "Arrival"
	}
	return "Departure"
}

// Flight is one scheduled departure or arrival as served by the backend.
// Values are snapshots of a single fetch and are never mutated.
type Flight struct {
	FlightNumber string  `json:"flight_number"`
	Airline      string  `json:"airline"`
	Status       string  `json:"status"`
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	Scheduled    *string `json:"scheduled"`
	Terminal     *string `json:"terminal"`
	Gate         *string `json:"gate"`
}

// ScheduledValue returns the scheduled time string, or "" when absent.
func (f *Flight) ScheduledValue() string {
	if f.Scheduled == nil {
		return ""
	}
	return *f.Scheduled
}

// TerminalValue returns the terminal, or "" when absent.
func (f *Flight) TerminalValue() string {
	if f.Terminal == nil {
		return ""
	}
	return *f.Terminal
}

// GateValue returns the gate, or "" when absent.
func (f *Flight) GateValue() string {
	if f.Gate == nil {
		return ""
	}
	return *f.Gate
}

// Counterpart returns the far end of the flight: the destination of a
// departure or the origin of an arrival.
func (f *Flight) Counterpart(dir Direction) string {
	if dir == Arrival {
		return f.Origin
	}
	return f.Destination
}

// Route renders "To X" for departures and "From X" for arrivals.
func (f *Flight) Route(dir Direction) string {
	place := strings.TrimSpace(f.Counterpart(dir))
	if place == "" {
		place = "--"
	}
	if dir == Arrival {
		return "From " + place
	}
	return "To " + place
}

// Board is the payload of one fetch for one airport.
type Board struct {
	Airport    string   `json:"airport"`
	Departures []Flight `json:"departures"`
	Arrivals   []Flight `json:"arrivals"`
}

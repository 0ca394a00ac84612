// Package api exposes the board over a small local JSON API so other tools
// can read the same snapshot the window shows.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/subham/airportboard/internal/assistant"
	"github.com/subham/airportboard/internal/chat"
	"github.com/subham/airportboard/internal/flights"
	"github.com/subham/airportboard/internal/summary"
	"github.com/subham/airportboard/internal/tracker"
)

// Tracker is the part of the poller the API drives.
type Tracker interface {
	Airport() string
	GetState() tracker.State
	Refresh(ctx context.Context) error
	RefreshWithLimit(ctx context.Context, limit int) error
}

// BoardResponse is the body of GET /api/board.
type BoardResponse struct {
	Airport     string           `json:"airport"`
	Departures  []flights.Flight `json:"departures"`
	Arrivals    []flights.Flight `json:"arrivals"`
	LastUpdated *time.Time       `json:"last_updated"`
	Error       string           `json:"error,omitempty"`
	Refreshing  bool             `json:"refreshing"`
	Limit       int              `json:"limit"`
	Summary     summary.Summary  `json:"summary"`
}

type askRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server serves the local API.
type Server struct {
	tracker Tracker
	asker   chat.Asker
	limiter *RateLimit
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLocation sets the zone zoneless schedule times are read in when the
// summary is computed. The default is the local zone.
func WithLocation(loc *time.Location) ServerOption {
	return func(s *Server) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewServer creates a Server. limiter throttles manual refreshes.
func NewServer(t Tracker, asker chat.Asker, limiter *RateLimit, logger *slog.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		tracker: t,
		asker:   asker,
		limiter: limiter,
		logger:  logger.With("component", "api"),
		loc:     time.Local,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests(s.logger))

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/board", s.getBoard).Methods(http.MethodGet)
	r.HandleFunc("/api/board/refresh", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/api/ask", s.ask).Methods(http.MethodPost)
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) board() BoardResponse {
	st := s.tracker.GetState()
	return BoardResponse{
		Airport:     s.tracker.Airport(),
		Departures:  st.Departures,
		Arrivals:    st.Arrivals,
		LastUpdated: st.LastUpdated,
		Error:       st.Error,
		Refreshing:  st.Refreshing,
		Limit:       st.Limit,
		Summary:     summary.Compute(st.Departures, st.Arrivals, s.now().In(s.loc)),
	}
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.board())
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Take() {
		wait := s.limiter.WaitDuration()
		w.Header().Set("Retry-After", strconv.Itoa(max(1, int(wait.Round(time.Second)/time.Second))))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Detail: "Refresh rate limit exceeded"})
		return
	}

	var err error
	if raw := r.URL.Query().Get("limit"); raw != "" {
		err = s.tracker.RefreshWithLimit(r.Context(), flights.ParseLimit(raw))
	} else {
		err = s.tracker.Refresh(r.Context())
	}
	if err != nil {
		// The failure is already recorded in the board's error field.
		writeJSON(w, http.StatusBadGateway, s.board())
		return
	}
	writeJSON(w, http.StatusOK, s.board())
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid request body"})
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Question is required"})
		return
	}

	ans, err := s.asker.Ask(r.Context(), question, s.tracker.Airport())
	if err != nil {
		msg := assistant.FallbackMessage
		var ae *assistant.Error
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}
		s.logger.Warn("assistant request failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: msg})
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package web exposes the engine to its UI collaborator as a JSON
// HTTP API: day classification and month grids for rendering, event
// queries for a detail panel, and add/delete/import/export intents.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"daycal/internal/config"
	"daycal/internal/holiday"
	daycalics "daycal/internal/ics"
	appLog "daycal/internal/log"
	"daycal/internal/model"
	"daycal/internal/store"
	"daycal/internal/view"
)

// maxImportBody caps POST /api/import.ics payloads.
const maxImportBody = 4 << 20

// Server serves the HTTP API. The store is a single mutable resource;
// mu serializes every handler's access to it rather than pushing
// finer-grained locks into the store, so mutation and empty-key
// cleanup stay atomic together.
type Server struct {
	cfg        *config.Config
	mux        *http.ServeMux
	mu         sync.Mutex
	store      *store.Store
	classifier *view.Classifier
}

// NewServer constructs a Server over the given store.
func NewServer(cfg *config.Config, s *store.Store, holidays *holiday.Table) *Server {
	srv := &Server{
		cfg:        cfg,
		mux:        http.NewServeMux(),
		store:      s,
		classifier: view.NewClassifier(s, holidays, cfg.ShowHolidays),
	}
	srv.registerRoutes()
	return srv
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Serve runs the HTTP server until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="daycal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/month", s.handleMonth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("GET /api/day/events", s.handleDayEvents)
	s.mux.HandleFunc("POST /api/events", s.handleAddEvent)
	s.mux.HandleFunc("DELETE /api/events", s.handleRemoveEvent)
	s.mux.HandleFunc("GET /api/year", s.handleYear)
	s.mux.HandleFunc("GET /api/export.ics", s.handleExportICS)
	s.mux.HandleFunc("POST /api/import.ics", s.handleImportICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventDTO is the JSON view of an event.
type eventDTO struct {
	Title      string  `json:"title"`
	Date       string  `json:"date"`
	Recurrence string  `json:"recurrence"`
	EndDate    *string `json:"endDate,omitempty"`
}

// dayStateDTO is the JSON view of a classified day.
type dayStateDTO struct {
	Date        string     `json:"date"`
	Kind        string     `json:"kind"`
	IsHoliday   bool       `json:"is_holiday"`
	HolidayName string     `json:"holiday_name,omitempty"`
	IsWeekend   bool       `json:"is_weekend"`
	Events      []eventDTO `json:"events"`
}

// monthResponse is the JSON response shape for /api/month.
type monthResponse struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	WeekStart string          `json:"week_start"`
	Weeks     [][]dayStateDTO `json:"weeks"`
}

// manualEventDTO pairs a manual event with its stable removal index,
// for the "multiple candidates, choose one" deletion flow.
type manualEventDTO struct {
	Index int      `json:"index"`
	Event eventDTO `json:"event"`
}

func toEventDTO(ev model.Event) eventDTO {
	dto := eventDTO{
		Title:      ev.Title,
		Date:       ev.Anchor.String(),
		Recurrence: ev.Recurrence.String(),
	}
	if ev.End != nil {
		end := ev.End.String()
		dto.EndDate = &end
	}
	return dto
}

func toDayStateDTO(state model.DayState) dayStateDTO {
	dto := dayStateDTO{
		Date:        state.Date.String(),
		Kind:        state.Kind.String(),
		IsHoliday:   state.IsHoliday,
		HolidayName: state.HolidayName,
		IsWeekend:   state.IsWeekend,
		Events:      make([]eventDTO, 0, len(state.Events)),
	}
	for _, ev := range state.Events {
		dto.Events = append(dto.Events, toEventDTO(ev))
	}
	return dto
}

// handleMonth classifies every visible cell of a month grid.
//
// GET /api/month?year=2024&month=5
// Both parameters default to the current year/month.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	q := r.URL.Query()
	year := parseIntDefault(q.Get("year"), now.Year())
	month := parseIntDefault(q.Get("month"), int(now.Month()))
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1..12")
		return
	}

	s.mu.Lock()
	grid := s.classifier.Month(year, time.Month(month), s.cfg.WeekStartDay())
	s.mu.Unlock()

	resp := monthResponse{
		Year:      grid.Year,
		Month:     int(grid.Month),
		WeekStart: s.cfg.WeekStart,
		Weeks:     make([][]dayStateDTO, 0, len(grid.Weeks)),
	}
	for _, week := range grid.Weeks {
		row := make([]dayStateDTO, 0, len(week))
		for _, state := range week {
			row = append(row, toDayStateDTO(state))
		}
		resp.Weeks = append(resp.Weeks, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDay classifies a single date.
//
// GET /api/day?date=2024-05-09
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	state := s.classifier.Classify(date)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, toDayStateDTO(state))
}

// handleDayEvents lists the manual (non-recurring) events anchored on
// a date together with their stable removal indices.
//
// GET /api/day/events?date=2024-05-09
func (s *Server) handleDayEvents(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	manual := s.store.ManualEventsOn(date)
	s.mu.Unlock()

	out := make([]manualEventDTO, 0, len(manual))
	for i, ev := range manual {
		out = append(out, manualEventDTO{Index: i, Event: toEventDTO(ev)})
	}
	writeJSON(w, http.StatusOK, out)
}

// addEventRequest is the add-intent payload.
type addEventRequest struct {
	Title      string `json:"title"`
	Date       string `json:"date"`
	Recurrence string `json:"recurrence"`
	EndDate    string `json:"endDate"`
}

// handleAddEvent creates one event.
//
// POST /api/events
// {"title": "Standup", "date": "2024-05-06", "recurrence": "weekly",
//  "endDate": "2024-05-20"}
func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req addEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	anchor, err := model.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev := model.Event{Title: req.Title, Anchor: anchor}
	if req.Recurrence != "" {
		recurrence, err := model.ParseRecurrence(req.Recurrence)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ev.Recurrence = recurrence
	}
	if req.EndDate != "" {
		end, err := model.ParseDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ev.End = &end
	}

	s.mu.Lock()
	err = s.store.Add(ev)
	s.mu.Unlock()

	if err != nil {
		appLog.Error("add event failed", err, "date", ev.Anchor)
		writeErrorFor(w, err)
		return
	}

	appLog.Info("event added", "title", ev.Title, "date", ev.Anchor, "recurrence", ev.Recurrence)
	writeJSON(w, http.StatusCreated, toEventDTO(ev))
}

// handleRemoveEvent removes one manual event by date and index.
//
// DELETE /api/events?date=2024-05-09&index=0
// The index refers into the list returned by /api/day/events.
func (s *Server) handleRemoveEvent(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(w, r)
	if !ok {
		return
	}
	index := parseIntDefault(r.URL.Query().Get("index"), 0)

	s.mu.Lock()
	err := s.store.RemoveManual(date, index)
	s.mu.Unlock()

	if err != nil {
		writeErrorFor(w, err)
		return
	}

	appLog.Info("event removed", "date", date, "index", index)
	w.WriteHeader(http.StatusNoContent)
}

// yearResponse is the JSON response shape for /api/year.
type yearResponse struct {
	Year        int      `json:"year"`
	Occurrences []string `json:"occurrences"`
}

// handleYear lists every occurrence date within a year.
//
// GET /api/year?year=2024
func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	year := parseIntDefault(r.URL.Query().Get("year"), time.Now().Year())

	s.mu.Lock()
	dates := s.store.OccurrencesInYear(year)
	s.mu.Unlock()

	resp := yearResponse{Year: year, Occurrences: make([]string, 0, len(dates))}
	for _, d := range dates {
		resp.Occurrences = append(resp.Occurrences, d.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExportICS serves the store as an iCalendar download.
//
// GET /api/export.ics?year=2024 (year optional; 0 exports everything)
func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	year := parseIntDefault(r.URL.Query().Get("year"), 0)

	s.mu.Lock()
	body, err := daycalics.Export(s.store, year)
	s.mu.Unlock()

	if err != nil {
		appLog.Error("ics export failed", err, "year", year)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename=daycal.ics`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// importResponse is the JSON response shape for /api/import.ics.
type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// handleImportICS imports all-day events from an ICS payload.
//
// POST /api/import.ics with the raw ICS document as the body.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	events, result, err := daycalics.Import(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	for _, ev := range events {
		if addErr := s.store.Add(ev); addErr != nil {
			err = addErr
			break
		}
	}
	s.mu.Unlock()

	if err != nil {
		appLog.Error("ics import failed", err)
		writeErrorFor(w, err)
		return
	}

	appLog.Info("ics import completed", "imported", result.Imported, "skipped", result.Skipped)
	writeJSON(w, http.StatusOK, importResponse{Imported: result.Imported, Skipped: result.Skipped})
}

// dateParam extracts and parses the required date query parameter,
// writing a 400 response if it is missing or malformed.
func dateParam(w http.ResponseWriter, r *http.Request) (model.Date, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date parameter is required")
		return model.Date{}, false
	}
	date, err := model.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.Date{}, false
	}
	return date, true
}

// writeErrorFor maps engine errors onto HTTP statuses.
func writeErrorFor(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrPersistence):
		// The in-memory edit survived; only the write failed.
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

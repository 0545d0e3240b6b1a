package adminhttp

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/store"
)

const defaultDLQListLimit = 100

// dlqListHandler lists dead-lettered events, most recent first.
func (s *Server) dlqListHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultDLQListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteProblem(w, NewProblem(http.StatusBadRequest, "Bad Request", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := s.store.DLQList(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dlqListResponse{Entries: toDLQEntryDTOs(entries)})
}

type dlqRetryRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

// dlqRetryHandler moves one dead-lettered event back to pending.
func (s *Server) dlqRetryHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	req := dlqRetryRequest{EventID: id}
	if verrs := Validate(&req); verrs != nil {
		writeFieldErrors(w, verrs)
		return
	}

	moved, err := s.store.DLQRetry(r.Context(), req.EventID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !moved {
		WriteProblem(w, NewProblem(http.StatusNotFound, "Not Found", "no dead-lettered event with that id"))
		return
	}

	writeJSON(w, http.StatusOK, dlqRetryResponse{Moved: true})
}

// dlqRetryAllHandler bulk-transitions every dead-lettered event to pending.
func (s *Server) dlqRetryAllHandler(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.DLQRetryAll(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dlqRetryAllResponse{Retried: count})
}

type replayRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"omitempty,gtfield=Start"`
	Types []string  `json:"types"`
}

// replayHandler returns events over [start, end] in timestamp order,
// optionally filtered by type, as one JSON object whose "events" field
// holds the array. Read-only.
func (s *Server) replayHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseTime(q.Get("start"))
	if err != nil {
		WriteProblem(w, NewProblem(http.StatusBadRequest, "Bad Request", "start must be RFC3339"))
		return
	}

	var end time.Time
	if raw := q.Get("end"); raw != "" {
		end, err = parseTime(raw)
		if err != nil {
			WriteProblem(w, NewProblem(http.StatusBadRequest, "Bad Request", "end must be RFC3339"))
			return
		}
	}

	req := replayRequest{Start: start, End: end}
	if verrs := Validate(&req); verrs != nil {
		writeFieldErrors(w, verrs)
		return
	}

	var types []string
	if raw := q.Get("types"); raw != "" {
		types = strings.Split(raw, ",")
	}

	events, err := s.store.Replay(r.Context(), start, end, types)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, replayResponse{Events: events})
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeFieldErrors(w http.ResponseWriter, verrs []FieldError) {
	p := NewProblem(http.StatusBadRequest, "Bad Request", "request validation failed")
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(struct {
		*Problem
		Errors []FieldError `json:"errors"`
	}{Problem: p, Errors: verrs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type dlqEntryDTO struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

type dlqListResponse struct {
	Entries []dlqEntryDTO `json:"entries"`
}

type dlqRetryResponse struct {
	Moved bool `json:"moved"`
}

type dlqRetryAllResponse struct {
	Retried int64 `json:"retried"`
}

type replayResponse struct {
	Events []event.Event `json:"events"`
}

func toDLQEntryDTOs(entries []store.DLQEntry) []dlqEntryDTO {
	out := make([]dlqEntryDTO, len(entries))
	for i, e := range entries {
		out[i] = dlqEntryDTO{
			EventID:   e.Event.ID,
			Type:      e.Event.Type,
			Source:    e.Event.Source,
			Error:     e.Error,
			Attempts:  e.Attempts,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

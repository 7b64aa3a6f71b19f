package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"s3-file-drop/internal/audit"
	"s3-file-drop/internal/storage"
)

const (
	defaultActivityLimit = 50
	activityWriteTimeout = 3 * time.Second
)

// recordActivity appends one event to the activity log, if enabled.
// Failures are logged and never change the response.
func (s *Server) recordActivity(r *http.Request, action audit.Action, key string, opErr error) {
	if s.activity == nil || key == "" {
		return
	}

	ev := audit.Event{
		Action:    action,
		Key:       key,
		Success:   opErr == nil,
		RequestID: RequestIDFromContext(r.Context()),
		ClientIP:  clientIP(r),
	}
	if opErr != nil {
		ev.Error = storage.Message(opErr)
	}

	// detached from the client so a disconnect does not drop the event,
	// but bounded so a stalled database cannot hold the response
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.cfg.ActivityTimeout)
	defer cancel()

	if err := s.activity.Record(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("request_id", ev.RequestID).
			Str("action", string(action)).
			Str("key", key).
			Msg("activity log write failed")
	}
}

// handleActivity handles GET /activity?limit=N, newest events first.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeError(w, http.StatusNotFound, "activity log is disabled")
		return
	}

	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > audit.MaxRecent {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(audit.MaxRecent))
			return
		}
		limit = n
	}

	events, err := s.activity.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("reading activity log failed")
		writeError(w, http.StatusInternalServerError, "Error reading activity log")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Mario928/life-context-api/internal/db"
)

// GPSHandler is an append-only logger for raw location payloads. The
// payload structure is whatever the member's logger app sends; it is
// stored verbatim.
type GPSHandler struct {
	db *db.Database
}

func NewGPSHandler(database *db.Database) *GPSHandler {
	return &GPSHandler{db: database}
}

func (h *GPSHandler) Receive(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "body must be valid JSON")
		return
	}

	receivedAt := time.Now().UTC()
	id, err := h.db.InsertGPSPoint(memberID, body, receivedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store GPS point: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"id":          id,
		"member_id":   memberID,
		"received_at": receivedAt,
	})
}

// Stats reports how much location data a member has logged and over
// what time range.
func (h *GPSHandler) Stats(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")

	stats, err := h.db.GetGPSStats(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load GPS stats: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id":    memberID,
		"total_points": stats.TotalPoints,
		"first_log":    stats.FirstLog,
		"last_log":     stats.LastLog,
		"active":       stats.TotalPoints > 0,
	})
}

func (h *GPSHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	points, err := h.db.ListGPSPoints(memberID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list GPS points: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id": memberID,
		"count":     len(points),
		"points":    points,
	})
}

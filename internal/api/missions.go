package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dronesim/pkg/config"
)

const maxBody = 1 << 16

// MissionQueue is the dispatcher side the API writes to.
type MissionQueue interface {
	Enqueue(m config.MissionConfig)
	Pending() []config.MissionConfig
}

// MissionsHandler lists and queues deliveries.
type MissionsHandler struct {
	queue    MissionQueue
	airports int
}

// NewMissionsHandler validates new missions against a world of the given
// number of airports.
func NewMissionsHandler(q MissionQueue, airports int) *MissionsHandler {
	return &MissionsHandler{queue: q, airports: airports}
}

// HandlePending serves GET /api/missions.
func (h *MissionsHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	pending := h.queue.Pending()
	if pending == nil {
		pending = []config.MissionConfig{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]config.MissionConfig{"pending": pending}); err != nil {
		slog.Error("Failed to encode missions response", "error", err)
	}
}

// HandleEnqueue serves POST /api/missions.
func (h *MissionsHandler) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	var m config.MissionConfig
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		http.Error(w, fmt.Sprintf("invalid mission: %v", err), http.StatusBadRequest)
		return
	}
	if err := m.Validate(h.airports); err != nil {
		http.Error(w, fmt.Sprintf("invalid mission: %v", err), http.StatusUnprocessableEntity)
		return
	}

	h.queue.Enqueue(m)
	slog.Info("Mission queued via API", "from", m.From, "from_gate", m.FromGate, "to", m.To, "to_gate", m.ToGate)
	w.WriteHeader(http.StatusAccepted)
}

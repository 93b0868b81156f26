package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dronesim/pkg/core"
)

// FleetSource is the read side of the fleet the API needs.
type FleetSource interface {
	Views() []core.DroneView
	Failures() []core.FailureRecord
	Elapsed() float64
}

// FleetResponse is the body of GET /api/drones and of every stream message.
type FleetResponse struct {
	Elapsed  float64              `json:"elapsed"`
	Drones   []core.DroneView     `json:"drones"`
	Failures []core.FailureRecord `json:"failures"`
}

func snapshotOf(src FleetSource) FleetResponse {
	resp := FleetResponse{
		Elapsed:  src.Elapsed(),
		Drones:   src.Views(),
		Failures: src.Failures(),
	}
	if resp.Drones == nil {
		resp.Drones = []core.DroneView{}
	}
	if resp.Failures == nil {
		resp.Failures = []core.FailureRecord{}
	}
	return resp
}

// DronesHandler serves the current fleet state.
type DronesHandler struct {
	src FleetSource
}

func NewDronesHandler(src FleetSource) *DronesHandler {
	return &DronesHandler{src: src}
}

func (h *DronesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshotOf(h.src)); err != nil {
		slog.Error("Failed to encode drones response", "error", err)
	}
}

// FlightSource yields the log of completed flights.
type FlightSource interface {
	Flights() []core.Flight
}

// FlightsHandler serves the completed flights.
type FlightsHandler struct {
	src FlightSource
}

func NewFlightsHandler(src FlightSource) *FlightsHandler {
	return &FlightsHandler{src: src}
}

func (h *FlightsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flights := h.src.Flights()
	if flights == nil {
		flights = []core.Flight{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]core.Flight{"flights": flights}); err != nil {
		slog.Error("Failed to encode flights response", "error", err)
	}
}

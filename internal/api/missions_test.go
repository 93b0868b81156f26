package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronesim/pkg/config"
	"dronesim/pkg/logging"
)

type fakeQueue struct {
	mu sync.Mutex
	q  []config.MissionConfig
}

func (f *fakeQueue) Enqueue(m config.MissionConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.q = append(f.q, m)
}

func (f *fakeQueue) Pending() []config.MissionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.q
}

func TestMissions_Enqueue(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantLen  int
	}{
		{"Valid", `{"from":0,"from_gate":1,"to":1,"to_gate":0}`, http.StatusAccepted, 1},
		{"Defaults", `{"to":1}`, http.StatusAccepted, 1},
		{"UnknownAirport", `{"from":0,"to":5}`, http.StatusUnprocessableEntity, 0},
		{"BadGate", `{"from":0,"from_gate":2,"to":1}`, http.StatusUnprocessableEntity, 0},
		{"UnknownField", `{"from":0,"to":1,"height":80}`, http.StatusBadRequest, 0},
		{"NotJSON", `from=0`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{}
			h := NewMissionsHandler(q, 2)
			rec := httptest.NewRecorder()
			h.HandleEnqueue(rec, httptest.NewRequest(http.MethodPost, "/api/missions", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Len(t, q.Pending(), tt.wantLen)
		})
	}
}

func TestMissions_ThroughServer(t *testing.T) {
	q := &fakeQueue{}
	srv := NewServer("127.0.0.1:0",
		NewDronesHandler(&fakeFleet{}),
		NewFlightsHandler(fakeFlights(nil)),
		NewMissionsHandler(q, 2),
		NewStreamHandler(&fakeFleet{}, 0, logging.Discard()),
		logging.Discard())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/missions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pending":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/missions",
		strings.NewReader(`{"from":1,"from_gate":0,"to":0,"to_gate":1}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/missions", nil))
	var body map[string][]config.MissionConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []config.MissionConfig{{From: 1, FromGate: 0, To: 0, ToGate: 1}}, body["pending"])
}

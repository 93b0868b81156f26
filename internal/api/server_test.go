package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dronesim/pkg/core"
	"dronesim/pkg/guidance"
	"dronesim/pkg/logging"
	"dronesim/pkg/sim"
	"dronesim/pkg/version"
)

type fakeFleet struct {
	mu       sync.Mutex
	elapsed  float64
	views    []core.DroneView
	failures []core.FailureRecord
}

func (f *fakeFleet) Views() []core.DroneView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views
}

func (f *fakeFleet) Failures() []core.FailureRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failures
}

func (f *fakeFleet) Elapsed() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elapsed += 0.5
	return f.elapsed
}

type fakeFlights []core.Flight

func (f fakeFlights) Flights() []core.Flight { return f }

func testServer(src FleetSource) *http.Server {
	return NewServer("127.0.0.1:0",
		NewDronesHandler(src),
		NewFlightsHandler(fakeFlights{{DroneID: "a", TakeOff: 3, Landed: 95, MaxHeight: 52, Airport: 1}}),
		NewMissionsHandler(&fakeQueue{}, 2),
		NewStreamHandler(src, 10*time.Millisecond, logging.Discard()),
		logging.Discard())
}

func TestHealthAndVersion(t *testing.T) {
	srv := testServer(&fakeFleet{})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"Health", "/health", "OK"},
		{"Version", "/api/version", `{"version": "` + version.Version + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDrones(t *testing.T) {
	tests := []struct {
		name         string
		fleet        *fakeFleet
		wantDrones   int
		wantFailures int
	}{
		{
			name:  "Empty",
			fleet: &fakeFleet{},
		},
		{
			name: "Active",
			fleet: &fakeFleet{views: []core.DroneView{
				{
					ID:        "a",
					Telemetry: sim.Telemetry{Snapshot: sim.Snapshot{X: 1, Y: 1.41}, Stage: "parked"},
					Phase:     "Parked",
				},
				{
					ID:      "b",
					Index:   1,
					Phase:   "fly: StableCruise",
					Mission: &guidance.Mission{From: 0, To: 1, ToGate: 1, Height: 57},
				},
			}},
			wantDrones: 2,
		},
		{
			name: "WithFailure",
			fleet: &fakeFleet{failures: []core.FailureRecord{
				{DroneID: "c", Part: "left wheel", Message: "landing gear broken"},
			}},
			wantFailures: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewDronesHandler(tt.fleet).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drones", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			// Empty slices must still encode as arrays.
			assert.NotContains(t, rec.Body.String(), "null")

			var resp FleetResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Drones, tt.wantDrones)
			assert.Len(t, resp.Failures, tt.wantFailures)
			assert.InDelta(t, 0.5, resp.Elapsed, 1e-12)
		})
	}
}

func TestDrones_MissionField(t *testing.T) {
	f := &fakeFleet{views: []core.DroneView{
		{ID: "a", Phase: "Parked"},
		{ID: "b", Mission: &guidance.Mission{To: 1, Height: 50}},
	}}
	rec := httptest.NewRecorder()
	NewDronesHandler(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drones", nil))

	var raw struct {
		Drones []map[string]json.RawMessage `json:"drones"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Len(t, raw.Drones, 2)
	assert.NotContains(t, raw.Drones[0], "mission")
	assert.Contains(t, raw.Drones[1], "mission")
	assert.Contains(t, raw.Drones[0], "telemetry")
}

func TestFlights(t *testing.T) {
	tests := []struct {
		name string
		src  FlightSource
		want int
	}{
		{"None", fakeFlights(nil), 0},
		{"One", fakeFlights{{DroneID: "a", Landed: 10, Airport: -1}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewFlightsHandler(tt.src).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/flights", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string][]core.Flight
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Contains(t, body, "flights")
			assert.Len(t, body["flights"], tt.want)
		})
	}

	rec := httptest.NewRecorder()
	testServer(&fakeFleet{}).Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/flights", nil))
	assert.Contains(t, rec.Body.String(), `"max_height":52`)
}

func TestStream(t *testing.T) {
	f := &fakeFleet{views: []core.DroneView{{ID: "a", Phase: "Parked"}}}
	ts := httptest.NewServer(testServer(f).Handler)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var last float64
	for i := 0; i < 3; i++ {
		var msg FleetResponse
		require.NoError(t, conn.ReadJSON(&msg))
		require.Len(t, msg.Drones, 1)
		assert.Equal(t, "a", msg.Drones[0].ID)
		assert.Greater(t, msg.Elapsed, last, "each message is a fresh sample")
		last = msg.Elapsed
	}

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestStream_PlainHTTP(t *testing.T) {
	rec := httptest.NewRecorder()
	NewStreamHandler(&fakeFleet{}, 0, logging.Discard()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

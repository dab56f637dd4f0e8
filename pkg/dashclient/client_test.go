package dashclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:        srv.URL,
		StoragePath:    filepath.Join(t.TempDir(), "session.json"),
		SubmitInterval: time.Hour,
	})
	require.NoError(t, err)
	return client, srv
}

func TestSessionIDPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := OpenSessionStore(path)
	require.NoError(t, err)
	first, err := store.GetOrCreateSessionID()
	require.NoError(t, err)
	require.NotEmpty(t, first)

	reopened, err := OpenSessionStore(path)
	require.NoError(t, err)
	second, err := reopened.GetOrCreateSessionID()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fresh, err := reopened.Reset()
	require.NoError(t, err)
	assert.NotEqual(t, first, fresh)
}

func TestSessionStoreSurvivesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{not json"), 0o600))

	store, err := OpenSessionStore(path)
	require.NoError(t, err)
	id, err := store.GetOrCreateSessionID()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestUnitsPreferencePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store, err := OpenSessionStore(path)
	require.NoError(t, err)
	assert.Equal(t, UnitsMetric, store.Units())
	require.NoError(t, store.SetUnits(UnitsImperial))
	require.Error(t, store.SetUnits("nautical"))

	reopened, err := OpenSessionStore(path)
	require.NoError(t, err)
	assert.Equal(t, UnitsImperial, reopened.Units())
}

func TestSubmitQueryBlankInputIsNoOp(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	require.NoError(t, client.SubmitQuery(context.Background(), "   \t\n"))
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Empty(t, client.State().Conversation())
}

func TestSubmitQueryHappyPath(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analyze", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Should I irrigate?", req["query"])
		assert.InDelta(t, 38.7646, req["lat"], 1e-9)
		assert.InDelta(t, -121.9018, req["lon"], 1e-9)
		assert.NotEmpty(t, req["session_id"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"full_response":    "Irrigate tomorrow morning.",
			"voice_response":   "Irrigate tomorrow.",
			"sources":          []string{"doc1"},
			"lat":              38.80,
			"lon":              -121.95,
			"location_address": "Field A",
			"weather_data":     map[string]interface{}{"temperature_c": 24.5},
			"satellite_data":   map[string]interface{}{"ndvi_current": 0.61, "water_stress": "low"},
		})
	}))

	require.NoError(t, client.SubmitQuery(context.Background(), "Should I irrigate?"))

	entries := client.State().Conversation()
	require.Len(t, entries, 2)
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, "Should I irrigate?", entries[0].Content)
	assert.Equal(t, RoleAssistant, entries[1].Role)
	assert.Equal(t, "Irrigate tomorrow morning.", entries[1].Content)
	assert.Equal(t, []string{"doc1"}, entries[1].Sources)

	loc := client.State().Location()
	assert.Equal(t, 38.80, loc.Latitude)
	assert.Equal(t, -121.95, loc.Longitude)
	assert.Equal(t, "Field A", loc.Label)
	assert.Equal(t, DefaultZoom, loc.Zoom)

	w := client.State().Weather()
	require.NotNil(t, w)
	assert.Equal(t, 24.5, w.TemperatureC)

	sat := client.State().Satellite()
	require.NotNil(t, sat.NDVICurrent)
	assert.Equal(t, 0.61, *sat.NDVICurrent)

	assert.False(t, client.State().Thinking())
}

func TestSubmitQueryFailureLeavesOneErrorEntry(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 502, "message": "analysis failed"})
	}))

	err := client.SubmitQuery(context.Background(), "Should I spray?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis failed")

	entries := client.State().Conversation()
	require.Len(t, entries, 2)
	assert.Equal(t, RoleUser, entries[0].Role)
	assert.Equal(t, RoleAssistant, entries[1].Role)
	assert.True(t, entries[1].IsError)
	assert.False(t, client.State().Thinking())
}

func TestSubmitQueryThrottleAllowsExactlyOneRequest(t *testing.T) {
	var analyzeCalls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/analyze":
			atomic.AddInt32(&analyzeCalls, 1)
			json.NewEncoder(w).Encode(map[string]interface{}{"full_response": "ok"})
		case "/api/location/telemetry":
			// A coordinate-less advisory triggers one refresh for the
			// unchanged location.
			json.NewEncoder(w).Encode(map[string]interface{}{
				"weather_data": map[string]interface{}{"temperature_c": 20.0},
			})
		}
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, client.SubmitQuery(context.Background(), "Should I irrigate?"))
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&analyzeCalls))
	// The dropped submits left no transcript entries behind.
	assert.Len(t, client.State().Conversation(), 2)

	w := client.State().Weather()
	require.NotNil(t, w)
	assert.Equal(t, 20.0, w.TemperatureC)
}

func TestRefreshTelemetryClearsCacheOnFailure(t *testing.T) {
	var fail atomic.Bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/location/telemetry", r.URL.Path)
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]interface{}{"code": 502, "message": "telemetry providers unavailable"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"weather_data":   map[string]interface{}{"temperature_c": 19.0},
			"satellite_data": map[string]interface{}{"ndvi_current": 0.5},
		})
	}))

	require.NoError(t, client.RefreshTelemetry(context.Background()))
	require.NotNil(t, client.State().Weather())

	fail.Store(true)
	require.Error(t, client.RefreshTelemetry(context.Background()))
	assert.Nil(t, client.State().Weather())
	assert.Nil(t, client.State().Satellite().NDVICurrent)
}

func TestResetSessionReplacesIdentityAndState(t *testing.T) {
	var resetCalls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/reset", r.URL.Path)
		atomic.AddInt32(&resetCalls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok"})
	}))

	oldID := client.SessionID()
	client.State().AppendEntry(ConversationEntry{Role: RoleUser, Content: "hello"})
	client.State().SetWeather(&Weather{TemperatureC: 31})

	newID, err := client.ResetSession(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, oldID, newID)
	assert.Equal(t, newID, client.SessionID())

	// The server notification is fire-and-forget; it lands shortly after.
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&resetCalls) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Empty(t, client.State().Conversation())
	assert.Nil(t, client.State().Weather())
	assert.Equal(t, DefaultLocation, client.State().Location())
}

func TestResetSessionSucceedsWhenServerDown(t *testing.T) {
	client, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	oldID := client.SessionID()
	newID, err := client.ResetSession(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, oldID, newID)
}

func TestStreamURLDerivation(t *testing.T) {
	u, err := StreamURL("http://localhost:8000", "abc")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8000/ws/dashboard?session_id=abc", u)

	u, err = StreamURL("https://farm.example.com", "abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://farm.example.com/ws/dashboard?session_id=abc", u)
}

package dashclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

func TestWeatherLastWriteWins(t *testing.T) {
	state := NewState()

	state.SetWeather(&Weather{TemperatureC: 18.5, RelativeHumidity: 60})
	state.SetWeather(&Weather{TemperatureC: 22.0})

	w := state.Weather()
	require.NotNil(t, w)
	assert.Equal(t, 22.0, w.TemperatureC)
	// Wholesale replacement: fields absent from the newer snapshot are gone.
	assert.Equal(t, 0.0, w.RelativeHumidity)
}

func TestSatelliteMergeRequiresCurrentNDVI(t *testing.T) {
	state := NewState()
	state.MergeSatellite(&Satellite{
		NDVICurrent: float64Ptr(0.62),
		TileURL:     "https://tiles.example.com/ndvi/a.png",
		WaterStress: "low",
	})

	// No current NDVI: the whole update is dropped.
	state.MergeSatellite(&Satellite{WaterStress: "high", TileURL: "https://tiles.example.com/ndvi/b.png"})
	sat := state.Satellite()
	require.NotNil(t, sat.NDVICurrent)
	assert.Equal(t, 0.62, *sat.NDVICurrent)
	assert.Equal(t, "low", sat.WaterStress)
	assert.Equal(t, "https://tiles.example.com/ndvi/a.png", sat.TileURL)

	// Sparse update with NDVI: applied, but absent fields keep cached values.
	state.MergeSatellite(&Satellite{NDVICurrent: float64Ptr(0.55)})
	sat = state.Satellite()
	assert.Equal(t, 0.55, *sat.NDVICurrent)
	assert.Equal(t, "https://tiles.example.com/ndvi/a.png", sat.TileURL)
	assert.Equal(t, "low", sat.WaterStress)
}

func TestDecodeUpdateResponseVoiceFallback(t *testing.T) {
	update, err := DecodeUpdate([]byte(`{"type":"response","payload":{"voice":"Hi"}}`))
	require.NoError(t, err)
	require.NotNil(t, update.Response)
	assert.Equal(t, "Hi", update.Response.Content)
	assert.False(t, update.Response.Timestamp.IsZero())
}

func TestDecodeUpdateDropsUnknownAndMalformed(t *testing.T) {
	_, err := DecodeUpdate([]byte(`{"type":"telemetry_v2","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = DecodeUpdate([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = DecodeUpdate([]byte(`{not json`))
	assert.Error(t, err)

	_, err = DecodeUpdate([]byte(`{"type":"weather","payload":[1,2,3]}`))
	assert.Error(t, err)
}

func TestDecodeUpdatePayloadFallsBackToFrameBody(t *testing.T) {
	update, err := DecodeUpdate([]byte(`{"type":"response","full":"Use drip irrigation.","sources":["doc1"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Use drip irrigation.", update.Response.Content)
	assert.Equal(t, []string{"doc1"}, update.Response.Sources)
}

func TestApplyResponseMovesLocationAndClearsThinking(t *testing.T) {
	state := NewState()
	state.SetThinking(true)

	update, err := DecodeUpdate([]byte(`{"type":"response","payload":{
		"full":"Soil moisture is adequate.",
		"lat":38.80,"lon":-121.95,"location_address":"Field A"}}`))
	require.NoError(t, err)
	state.Apply(update)

	loc := state.Location()
	assert.Equal(t, 38.80, loc.Latitude)
	assert.Equal(t, -121.95, loc.Longitude)
	assert.Equal(t, "Field A", loc.Label)
	assert.Equal(t, DefaultZoom, loc.Zoom)
	assert.False(t, state.Thinking())

	entries := state.Conversation()
	require.Len(t, entries, 1)
	assert.Equal(t, RoleAssistant, entries[0].Role)
	assert.Equal(t, "Soil moisture is adequate.", entries[0].Content)
}

func TestApplyResponseWithoutCoordinatesKeepsLocation(t *testing.T) {
	state := NewState()

	update, err := DecodeUpdate([]byte(`{"type":"response","payload":{"full":"Noted."}}`))
	require.NoError(t, err)
	state.Apply(update)

	assert.Equal(t, DefaultLocation, state.Location())
}

func TestApplyDuplicateResponsesBothAppend(t *testing.T) {
	state := NewState()
	raw := []byte(`{"type":"response","payload":{"full":"Same advisory."}}`)

	for i := 0; i < 2; i++ {
		update, err := DecodeUpdate(raw)
		require.NoError(t, err)
		state.Apply(update)
	}

	assert.Len(t, state.Conversation(), 2)
}

func TestApplyThinking(t *testing.T) {
	state := NewState()
	update, err := DecodeUpdate([]byte(`{"type":"thinking"}`))
	require.NoError(t, err)
	state.Apply(update)
	assert.True(t, state.Thinking())
}

func TestSetVoteBounds(t *testing.T) {
	state := NewState()
	state.AppendEntry(ConversationEntry{Role: RoleAssistant, Content: "Advice."})

	state.SetVote(0, 1)
	assert.Equal(t, 1, state.Conversation()[0].Vote)

	state.SetVote(0, -7)
	assert.Equal(t, -1, state.Conversation()[0].Vote)

	// Out of range is ignored.
	state.SetVote(3, 1)
	assert.Len(t, state.Conversation(), 1)
}

func TestStateResetRestoresLaunchDefaults(t *testing.T) {
	state := NewState()
	state.AppendEntry(ConversationEntry{Role: RoleUser, Content: "hello"})
	state.SetWeather(&Weather{TemperatureC: 30})
	state.MergeSatellite(&Satellite{NDVICurrent: float64Ptr(0.4)})
	state.SetLocation(Location{Latitude: 1, Longitude: 2, Label: "Elsewhere", Zoom: 15})
	state.SelectPoint(38.81, -121.93)
	state.SetThinking(true)
	state.setConnected(true)

	state.Reset()

	assert.Empty(t, state.Conversation())
	assert.Equal(t, DefaultLocation, state.Location())
	_, picked := state.SelectedPoint()
	assert.False(t, picked)
	assert.Nil(t, state.Weather())
	assert.Nil(t, state.Satellite().NDVICurrent)
	assert.False(t, state.Thinking())
	// Connectivity tracks the stream, not the session.
	assert.True(t, state.Connected())
}

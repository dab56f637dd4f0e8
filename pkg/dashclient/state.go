package dashclient

import (
	"sync"
	"time"

	"agri-advisor/pkg/agro"
)

// Unit systems, shared with the server-side conversion helpers.
const (
	UnitsMetric   = agro.UnitsMetric
	UnitsImperial = agro.UnitsImperial
)

// DefaultZoom is the map zoom applied whenever an advisory moves the pin.
const DefaultZoom = 13

// DefaultLocation is the launch (and post-reset) map position.
var DefaultLocation = Location{
	Latitude:  38.7646,
	Longitude: -121.9018,
	Label:     "Yolo County, CA",
	Zoom:      11,
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationEntry is one turn of the session transcript.
type ConversationEntry struct {
	Role      string
	Content   string
	Sources   []string
	Timestamp time.Time
	IsError   bool
	// Vote is per-entry feedback: -1 down, 0 none, 1 up.
	Vote int
}

// Location is the map focus: coordinates plus a human label and zoom.
type Location struct {
	Latitude  float64
	Longitude float64
	Label     string
	Zoom      int
}

// Weather is the client-side view of a weather snapshot. It is replaced
// wholesale on every update; stale partial merges are not a thing here.
type Weather struct {
	TemperatureC        float64       `json:"temperature_c"`
	RelativeHumidity    float64       `json:"relative_humidity"`
	PrecipitationMm     float64       `json:"precipitation_mm"`
	WindSpeedKmh        float64       `json:"wind_speed_kmh"`
	WindDirection       float64       `json:"wind_direction"`
	SoilMoisture0_7     float64       `json:"soil_moisture_0_7cm"`
	SoilMoisture7_28    float64       `json:"soil_moisture_7_28cm"`
	SoilMoisture28_100  float64       `json:"soil_moisture_28_100cm"`
	ReferenceETo        float64       `json:"reference_evapotranspiration"`
	SprayDriftRisk      string        `json:"spray_drift_risk"`
	FungalRisk          string        `json:"fungal_risk"`
	Forecast            []ForecastDay `json:"forecast"`
}

// ForecastDay is one day of the short-range outlook.
type ForecastDay struct {
	Date             string  `json:"date"`
	TempMax          float64 `json:"temp_max"`
	TempMin          float64 `json:"temp_min"`
	PrecipitationSum float64 `json:"precipitation_sum"`
}

// Satellite is the client-side imagery snapshot. Unlike weather it is merged
// field by field, so a sparse update cannot clobber a richer cached value.
type Satellite struct {
	NDVICurrent  *float64 `json:"ndvi_current"`
	NDVIPrevious *float64 `json:"ndvi_previous"`
	WaterStress  string   `json:"water_stress"`
	TileURL      string   `json:"tile_url"`
	IsMock       *bool    `json:"is_mock"`
	CapturedAt   string   `json:"captured_at"`
}

// Citation is one retrieved source shown in the citations panel.
type Citation struct {
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// MarketQuote is one row of the commodity price panel.
type MarketQuote struct {
	Commodity string  `json:"commodity"`
	PriceUSD  float64 `json:"price_usd"`
	Unit      string  `json:"unit"`
	ChangePct float64 `json:"change_pct"`
}

// ChemicalRecommendation is one row of the input-product panel.
type ChemicalRecommendation struct {
	Product              string `json:"product"`
	Target               string `json:"target"`
	Rate                 string `json:"rate"`
	ReentryIntervalHours int    `json:"reentry_interval_hours"`
}

// Panels groups the side-panel payloads that are replaced wholesale by each
// advisory response.
type Panels struct {
	Citations []Citation
	Market    []MarketQuote
	Chemicals []ChemicalRecommendation
}

// State is the single shared container every surface reads from. All
// mutation goes through its methods; each method is one atomic transition
// under the lock, so readers never observe a half-applied update.
type State struct {
	mu sync.RWMutex

	conversation  []ConversationEntry
	location      Location
	selectedPoint *Location
	weather       *Weather
	satellite     Satellite
	panels        Panels
	thinking      bool
	connected     bool
}

func NewState() *State {
	return &State{location: DefaultLocation}
}

// Conversation returns a copy of the transcript.
func (s *State) Conversation() []ConversationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ConversationEntry, len(s.conversation))
	copy(out, s.conversation)
	return out
}

// AppendEntry appends one turn to the transcript. Duplicate content is
// appended as-is; the transcript is a log, not a set.
func (s *State) AppendEntry(entry ConversationEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.conversation = append(s.conversation, entry)
}

// SetVote records feedback on the transcript entry at index. Out-of-range
// indexes are ignored.
func (s *State) SetVote(index, vote int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.conversation) {
		return
	}
	if vote < -1 {
		vote = -1
	} else if vote > 1 {
		vote = 1
	}
	s.conversation[index].Vote = vote
}

// Location returns the current map focus.
func (s *State) Location() Location {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

func (s *State) SetLocation(loc Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
}

// SelectPoint marks a user-picked map point, separate from the advisory
// focus location.
func (s *State) SelectPoint(lat, lon float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPoint = &Location{Latitude: lat, Longitude: lon}
}

func (s *State) ClearSelectedPoint() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedPoint = nil
}

// SelectedPoint returns the picked point and whether one exists.
func (s *State) SelectedPoint() (Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selectedPoint == nil {
		return Location{}, false
	}
	return *s.selectedPoint, true
}

// Weather returns the latest weather snapshot, or nil if none has arrived.
func (s *State) Weather() *Weather {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.weather == nil {
		return nil
	}
	w := *s.weather
	w.Forecast = append([]ForecastDay(nil), s.weather.Forecast...)
	return &w
}

// SetWeather replaces the weather snapshot wholesale. Last write wins.
func (s *State) SetWeather(w *Weather) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = w
}

// Satellite returns the current imagery snapshot.
func (s *State) Satellite() Satellite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.satellite
}

// MergeSatellite folds an update into the cached snapshot. The update is
// only applied when it carries a current NDVI; within an applied update,
// absent fields keep their cached values.
func (s *State) MergeSatellite(u *Satellite) {
	if u == nil || u.NDVICurrent == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.satellite.NDVICurrent = u.NDVICurrent
	if u.NDVIPrevious != nil {
		s.satellite.NDVIPrevious = u.NDVIPrevious
	}
	if u.WaterStress != "" {
		s.satellite.WaterStress = u.WaterStress
	}
	if u.TileURL != "" {
		s.satellite.TileURL = u.TileURL
	}
	if u.IsMock != nil {
		s.satellite.IsMock = u.IsMock
	}
	if u.CapturedAt != "" {
		s.satellite.CapturedAt = u.CapturedAt
	}
}

// Panels returns a copy of the side-panel payloads.
func (s *State) Panels() Panels {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Panels{
		Citations: append([]Citation(nil), s.panels.Citations...),
		Market:    append([]MarketQuote(nil), s.panels.Market...),
		Chemicals: append([]ChemicalRecommendation(nil), s.panels.Chemicals...),
	}
}

// ReplacePanels swaps all side panels at once.
func (s *State) ReplacePanels(p Panels) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panels = p
}

// ClearTelemetry drops cached weather and satellite data, typically after a
// failed refresh so widgets show "no data" instead of stale numbers.
func (s *State) ClearTelemetry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = nil
	s.satellite = Satellite{}
}

// Thinking reports whether a query is in flight.
func (s *State) Thinking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thinking
}

func (s *State) SetThinking(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thinking = v
}

// Connected reports the live-stream link status. It is derived purely from
// the stream lifecycle; nothing else writes it.
func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *State) setConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = v
}

// Reset returns the container to its launch state: empty transcript, default
// location, no telemetry, no panels, not thinking. The connected flag is
// left alone; it tracks the stream, not the session.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversation = nil
	s.location = DefaultLocation
	s.selectedPoint = nil
	s.weather = nil
	s.satellite = Satellite{}
	s.panels = Panels{}
	s.thinking = false
}

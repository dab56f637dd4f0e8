package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agri-advisor/internal/config"
	"agri-advisor/internal/constant"
	"agri-advisor/internal/dto"
	"agri-advisor/internal/model"
	"agri-advisor/internal/pkg/logger"
	"agri-advisor/internal/repository/memory"
	"agri-advisor/pkg/agro"
	"agri-advisor/pkg/events"
)

type IAdvisorService interface {
	Analyze(ctx context.Context, request *dto.AnalyzeRequest) (*model.Advisory, error)
	Reset(ctx context.Context, sessionID string) error
}

// contextTurns caps how much conversation history travels to the upstream
// analysis API per request.
const contextTurns = 10

type advisorService struct {
	cfg         config.AdvisorConfig
	httpClient  *http.Client
	sessionRepo *memory.SessionRepository
	weather     IWeatherService
	satellite   ISatelliteService
	publisher   events.Publisher
	logger      logger.ILogger
}

func NewAdvisorService(
	cfg config.AdvisorConfig,
	sessionRepo *memory.SessionRepository,
	weather IWeatherService,
	satellite ISatelliteService,
	publisher events.Publisher,
	log logger.ILogger,
) IAdvisorService {
	return &advisorService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		sessionRepo: sessionRepo,
		weather:     weather,
		satellite:   satellite,
		publisher:   publisher,
		logger:      log,
	}
}

// Analyze runs one advisory round trip: telemetry first, then the AI answer.
// Telemetry is pushed to the session's stream as soon as it is available so
// the dashboard fills in while the model is still thinking.
func (s *advisorService) Analyze(ctx context.Context, request *dto.AnalyzeRequest) (*model.Advisory, error) {
	session := s.sessionRepo.GetOrCreate(request.SessionID)

	s.publish(ctx, request.SessionID, constant.StreamTypeThinking, nil)

	weather, err := s.weather.GetWeather(ctx, request.Lat, request.Lon)
	if err != nil {
		s.logger.Warn("AdvisorService", "Weather fetch failed", map[string]interface{}{"error": err.Error(), "session_id": request.SessionID})
		weather = nil
	} else {
		s.publish(ctx, request.SessionID, constant.StreamTypeWeather, weather)
	}

	satellite, err := s.satellite.GetSatellite(ctx, request.Lat, request.Lon)
	if err != nil {
		s.logger.Warn("AdvisorService", "Satellite fetch failed", map[string]interface{}{"error": err.Error(), "session_id": request.SessionID})
		satellite = nil
	} else {
		s.publish(ctx, request.SessionID, constant.StreamTypeSatellite, satellite)
	}

	var advisory *model.Advisory
	if s.cfg.BaseURL != "" {
		advisory, err = s.callUpstream(ctx, request, session)
		if err != nil {
			return nil, err
		}
	} else {
		advisory = s.fallbackAdvisory(request, weather, satellite)
	}

	if advisory.Weather == nil {
		advisory.Weather = weather
	}
	if advisory.Satellite == nil {
		advisory.Satellite = satellite
	}
	if advisory.Timestamp.IsZero() {
		advisory.Timestamp = time.Now()
	}

	// Record the turn before pushing, so a streaming consumer and a later
	// history read agree on ordering.
	now := time.Now()
	session.Conversation = append(session.Conversation,
		model.ChatTurn{Role: constant.ChatRoleUser, Content: request.Query, Timestamp: now},
		model.ChatTurn{Role: constant.ChatRoleAssistant, Content: advisory.FullResponse, Timestamp: now},
	)
	session.LastQuery = request.Query
	session.LastLat = request.Lat
	session.LastLon = request.Lon
	s.sessionRepo.Save(session)

	s.publish(ctx, request.SessionID, constant.StreamTypeResponse, model.ResponsePayload{
		Full:            advisory.FullResponse,
		Voice:           advisory.VoiceResponse,
		Sources:         advisory.Sources,
		Timestamp:       advisory.Timestamp.UTC().Format(time.RFC3339),
		Latitude:        advisory.Latitude,
		Longitude:       advisory.Longitude,
		LocationAddress: advisory.LocationAddress,
	})

	return advisory, nil
}

func (s *advisorService) Reset(ctx context.Context, sessionID string) error {
	s.sessionRepo.Delete(sessionID)
	s.logger.Info("AdvisorService", "Session reset", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (s *advisorService) callUpstream(ctx context.Context, request *dto.AnalyzeRequest, session *model.Session) (*model.Advisory, error) {
	history := session.Conversation
	if len(history) > contextTurns {
		history = history[len(history)-contextTurns:]
	}

	body, err := json.Marshal(map[string]interface{}{
		"query":      request.Query,
		"lat":        request.Lat,
		"lon":        request.Lon,
		"session_id": request.SessionID,
		"context":    history,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("analysis API error: status %d: %s", resp.StatusCode, respBody)
	}

	var advisory model.Advisory
	if err := json.NewDecoder(resp.Body).Decode(&advisory); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &advisory, nil
}

// fallbackAdvisory composes a local answer from telemetry and the agronomy
// calculators when no analysis upstream is configured. It is deliberately
// conservative: numbers over prose.
func (s *advisorService) fallbackAdvisory(request *dto.AnalyzeRequest, weather *model.WeatherSnapshot, satellite *model.SatelliteSnapshot) *model.Advisory {
	var b strings.Builder

	if weather != nil {
		fmt.Fprintf(&b, "Current conditions: %.1f°C, %.0f%% humidity, wind %.1f km/h. ",
			weather.TemperatureC, weather.RelativeHumidity, weather.WindSpeedKmh)

		if strings.Contains(strings.ToLower(request.Query), "irrigat") {
			need := agro.IrrigationRequirementMm(weather.ReferenceET, agro.CropCoefficient("almond"), weather.PrecipitationMm)
			if need > 0 {
				fmt.Fprintf(&b, "Reference ET is %.2f mm; net irrigation demand today is about %.2f mm (%.0f L/ha). ",
					weather.ReferenceET, need, agro.WaterVolumeLitersPerHa(need))
			} else {
				b.WriteString("Rainfall covers today's crop water demand; irrigation can wait. ")
			}
		}
		if weather.SprayDriftRisk != agro.RiskLow {
			fmt.Fprintf(&b, "Spray drift risk is %s at current wind speeds. ", weather.SprayDriftRisk)
		}
		if weather.FungalRisk != agro.RiskLow {
			fmt.Fprintf(&b, "Fungal disease pressure is %s; scout susceptible blocks. ", weather.FungalRisk)
		}
	}
	if satellite != nil && satellite.NDVICurrent != nil {
		fmt.Fprintf(&b, "Latest NDVI is %.2f with %s water stress.", *satellite.NDVICurrent, satellite.WaterStress)
	}
	if b.Len() == 0 {
		b.WriteString("Telemetry is currently unavailable for this location; try again shortly.")
	}

	full := strings.TrimSpace(b.String())
	return &model.Advisory{
		FullResponse: full,
		Sources:      []string{"open-meteo", "field-telemetry"},
		Timestamp:    time.Now(),
	}
}

func (s *advisorService) publish(ctx context.Context, sessionID, eventType string, payload interface{}) {
	evt, err := events.NewDashboardEvent(sessionID, eventType, payload)
	if err != nil {
		s.logger.Error("AdvisorService", "Event marshal failed", map[string]interface{}{"error": err.Error(), "type": eventType})
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Error("AdvisorService", "Event publish failed", map[string]interface{}{"error": err.Error(), "type": eventType})
	}
}

package dashclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Stream message types pushed by the gateway.
const (
	TypeThinking  = "thinking"
	TypeWeather   = "weather"
	TypeSatellite = "satellite"
	TypeResponse  = "response"
)

// ErrUnknownType marks a stream frame whose type is missing or unrecognized.
// Such frames are dropped, never surfaced to the user.
var ErrUnknownType = errors.New("unknown stream message type")

// Update is the decoded form of one stream frame. Exactly one of the typed
// fields is set, matching Type.
type Update struct {
	Type      string
	Weather   *Weather
	Satellite *Satellite
	Response  *ResponseUpdate
}

// ResponseUpdate is a completed advisory pushed over the stream.
type ResponseUpdate struct {
	Content   string
	Sources   []string
	Timestamp time.Time
	Latitude  *float64
	Longitude *float64
	Address   string
}

// streamFrame is the wire envelope: a type tag plus an optional payload.
type streamFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type responsePayload struct {
	Full      string   `json:"full"`
	Voice     string   `json:"voice"`
	Sources   []string `json:"sources"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lon"`
	Address   string   `json:"location_address"`
}

// DecodeUpdate parses one raw stream frame into a typed Update. Older
// gateway builds put response fields directly on the message body, so an
// absent payload falls back to the frame itself.
func DecodeUpdate(data []byte) (*Update, error) {
	var frame streamFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode stream frame: %w", err)
	}

	body := frame.Payload
	if len(body) == 0 {
		body = data
	}

	switch frame.Type {
	case TypeThinking:
		return &Update{Type: TypeThinking}, nil

	case TypeWeather:
		var w Weather
		if err := json.Unmarshal(body, &w); err != nil {
			return nil, fmt.Errorf("decode weather update: %w", err)
		}
		return &Update{Type: TypeWeather, Weather: &w}, nil

	case TypeSatellite:
		var sat Satellite
		if err := json.Unmarshal(body, &sat); err != nil {
			return nil, fmt.Errorf("decode satellite update: %w", err)
		}
		return &Update{Type: TypeSatellite, Satellite: &sat}, nil

	case TypeResponse:
		var p responsePayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode response update: %w", err)
		}

		content := p.Full
		if content == "" {
			content = p.Voice
		}
		if strings.TrimSpace(content) == "" {
			return nil, errors.New("response update carries no content")
		}

		ts, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			ts = time.Now()
		}

		return &Update{Type: TypeResponse, Response: &ResponseUpdate{
			Content:   content,
			Sources:   p.Sources,
			Timestamp: ts,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Address:   p.Address,
		}}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, frame.Type)
	}
}

// Apply folds a decoded update into the state. Each case is one atomic
// transition; an update either applies fully or not at all.
func (s *State) Apply(u *Update) {
	if u == nil {
		return
	}

	switch u.Type {
	case TypeThinking:
		s.SetThinking(true)

	case TypeWeather:
		s.SetWeather(u.Weather)

	case TypeSatellite:
		s.MergeSatellite(u.Satellite)

	case TypeResponse:
		r := u.Response
		s.AppendEntry(ConversationEntry{
			Role:      RoleAssistant,
			Content:   r.Content,
			Sources:   r.Sources,
			Timestamp: r.Timestamp,
		})
		if r.Latitude != nil && r.Longitude != nil {
			label := r.Address
			if label == "" {
				label = fmt.Sprintf("%.4f, %.4f", *r.Latitude, *r.Longitude)
			}
			s.SetLocation(Location{
				Latitude:  *r.Latitude,
				Longitude: *r.Longitude,
				Label:     label,
				Zoom:      DefaultZoom,
			})
		}
		s.SetThinking(false)
	}
}

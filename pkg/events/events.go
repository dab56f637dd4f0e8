package events

import (
	"encoding/json"
	"time"
)

// TopicDashboard carries every push destined for a dashboard session.
const TopicDashboard = "dashboard_events"

// DashboardEvent is the bus envelope for one streamed update. Type matches
// the websocket message type the dispatcher will emit; Payload is forwarded
// verbatim.
type DashboardEvent struct {
	SessionID  string          `json:"session_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewDashboardEvent marshals payload and stamps the event. A nil payload is
// allowed (e.g. "thinking" carries none).
func NewDashboardEvent(sessionID, eventType string, payload interface{}) (DashboardEvent, error) {
	evt := DashboardEvent{
		SessionID:  sessionID,
		Type:       eventType,
		OccurredAt: time.Now(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return evt, err
		}
		evt.Payload = data
	}
	return evt, nil
}

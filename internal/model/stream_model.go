package model

import "encoding/json"

// StreamMessage is the envelope for every push on /ws/dashboard. The payload
// shape is discriminated by Type; consumers that do not recognize a type are
// expected to drop the message silently.
type StreamMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ResponsePayload is the payload of a "response" push.
type ResponsePayload struct {
	Full            string   `json:"full,omitempty"`
	Voice           string   `json:"voice,omitempty"`
	Sources         []string `json:"sources,omitempty"`
	Timestamp       string   `json:"timestamp,omitempty"`
	Latitude        *float64 `json:"lat,omitempty"`
	Longitude       *float64 `json:"lon,omitempty"`
	LocationAddress string   `json:"location_address,omitempty"`
}

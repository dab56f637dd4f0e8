package model

import "time"

// Session is the server-side conversation context for one dashboard client.
// It lives only in memory; the client owns the session id and re-creates
// context by talking again after a gateway restart.
type Session struct {
	ID           string     `json:"id"`
	Conversation []ChatTurn `json:"conversation"`
	LastQuery    string     `json:"last_query"`
	LastLat      float64    `json:"last_lat"`
	LastLon      float64    `json:"last_lon"`
	CreatedAt    time.Time  `json:"created_at"`
}

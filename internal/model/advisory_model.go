package model

import "time"

// Advisory is the merged result of one analysis round trip: the assistant
// text plus every auxiliary panel the dashboard renders.
type Advisory struct {
	FullResponse    string                   `json:"full_response"`
	VoiceResponse   string                   `json:"voice_response,omitempty"`
	Sources         []string                 `json:"sources,omitempty"`
	RAGResults      []RAGResult              `json:"rag_results,omitempty"`
	MarketData      []MarketQuote            `json:"market_data,omitempty"`
	ChemicalData    []ChemicalRecommendation `json:"chemical_data,omitempty"`
	Weather         *WeatherSnapshot         `json:"weather_data,omitempty"`
	Satellite       *SatelliteSnapshot       `json:"satellite_data,omitempty"`
	Latitude        *float64                 `json:"lat,omitempty"`
	Longitude       *float64                 `json:"lon,omitempty"`
	LocationAddress string                   `json:"location_address,omitempty"`
	Timestamp       time.Time                `json:"timestamp"`
}

type RAGResult struct {
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

type MarketQuote struct {
	Commodity string  `json:"commodity"`
	PriceUSD  float64 `json:"price_usd"`
	Unit      string  `json:"unit"`
	ChangePct float64 `json:"change_pct"`
}

type ChemicalRecommendation struct {
	Product              string `json:"product"`
	Target               string `json:"target"`
	Rate                 string `json:"rate"`
	ReentryIntervalHours int    `json:"reentry_interval_hours"`
}

// ChatTurn is one entry of a session's conversation context.
type ChatTurn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

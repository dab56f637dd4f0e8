package dto

// AnalyzeRequest is the body of POST /api/analyze. The session id is an
// opaque client-generated key; the server never inspects its format.
type AnalyzeRequest struct {
	Query     string  `json:"query" validate:"required"`
	Lat       float64 `json:"lat" validate:"min=-90,max=90"`
	Lon       float64 `json:"lon" validate:"min=-180,max=180"`
	SessionID string  `json:"session_id" validate:"required"`
}

type ResetRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type ResetResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

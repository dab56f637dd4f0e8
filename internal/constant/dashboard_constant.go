package constant

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"

	// Stream message types pushed over /ws/dashboard.
	StreamTypeThinking  = "thinking"
	StreamTypeWeather   = "weather"
	StreamTypeSatellite = "satellite"
	StreamTypeResponse  = "response"
)

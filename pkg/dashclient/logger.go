package dashclient

// Logger is the leveled structured logger the client reports through. It is
// satisfied by the server's zap facade; embedders can plug in their own.
type Logger interface {
	Debug(module string, message string, details map[string]interface{})
	Info(module string, message string, details map[string]interface{})
	Warn(module string, message string, details map[string]interface{})
	Error(module string, message string, details map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

package dashclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultSubmitInterval is the minimum gap between accepted submissions.
// Repeat submits inside the window are dropped silently, mirroring the
// debounce on the dashboard's send button.
const DefaultSubmitInterval = 2 * time.Second

// ErrorReplyContent is the transcript entry shown when an analyze call fails.
const ErrorReplyContent = "Sorry, something went wrong while generating your advisory. Please try again."

// Config configures a Client. Zero values get sensible defaults.
type Config struct {
	// BaseURL is the gateway origin, e.g. "http://localhost:8000".
	BaseURL string
	// StoragePath is the session store file. Defaults to
	// ~/.agri-advisor/session.json.
	StoragePath string
	// RequestTimeout bounds each gateway call.
	RequestTimeout time.Duration
	// SubmitInterval is the query throttle window.
	SubmitInterval time.Duration
	Logger         Logger
}

// Client is the session-scoped dashboard core: identity, shared state, the
// REST round trips and the push stream, behind one facade.
type Client struct {
	api    *APIClient
	store  *SessionStore
	state  *State
	logger Logger

	sessionID      string
	submitInterval time.Duration

	submitMu   sync.Mutex
	lastSubmit time.Time
	inFlight   bool
}

// New opens (or creates) the session store and builds a ready client. The
// push stream is not started; call Run for that.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = NewNopLogger()
	}
	if cfg.SubmitInterval <= 0 {
		cfg.SubmitInterval = DefaultSubmitInterval
	}
	if cfg.StoragePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StoragePath = filepath.Join(home, ".agri-advisor", "session.json")
	}

	store, err := OpenSessionStore(cfg.StoragePath)
	if err != nil {
		return nil, err
	}
	sessionID, err := store.GetOrCreateSessionID()
	if err != nil {
		return nil, err
	}

	return &Client{
		api:            NewAPIClient(cfg.BaseURL, cfg.RequestTimeout, cfg.Logger),
		store:          store,
		state:          NewState(),
		logger:         cfg.Logger,
		sessionID:      sessionID,
		submitInterval: cfg.SubmitInterval,
	}, nil
}

// State exposes the shared container for reading snapshots.
func (c *Client) State() *State { return c.state }

// SessionID returns the current session identity.
func (c *Client) SessionID() string {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()
	return c.sessionID
}

// Units returns the persisted unit preference.
func (c *Client) Units() string { return c.store.Units() }

// SetUnits persists a new unit preference.
func (c *Client) SetUnits(units string) error { return c.store.SetUnits(units) }

// Run attaches the push stream for the current session and blocks until ctx
// is cancelled or the stream's reconnect budget runs out.
func (c *Client) Run(ctx context.Context) error {
	streamURL, err := StreamURL(c.api.baseURL, c.SessionID())
	if err != nil {
		return err
	}
	return NewStream(streamURL, c.state, c.logger).Run(ctx)
}

// SubmitQuery sends a query through the analyze pipeline and folds the
// result into state. Blank input is a no-op, as is a submit inside the
// throttle window or while another query is in flight. A failed call leaves
// exactly one error entry in the transcript; the thinking flag is always
// cleared when the attempt settles.
func (c *Client) SubmitQuery(ctx context.Context, text string) error {
	query := strings.TrimSpace(text)
	if query == "" {
		return nil
	}

	c.submitMu.Lock()
	if c.inFlight || time.Since(c.lastSubmit) < c.submitInterval {
		c.submitMu.Unlock()
		return nil
	}
	c.inFlight = true
	c.lastSubmit = time.Now()
	sessionID := c.sessionID
	c.submitMu.Unlock()

	defer func() {
		c.submitMu.Lock()
		c.inFlight = false
		c.submitMu.Unlock()
		c.state.SetThinking(false)
	}()

	loc := c.state.Location()
	c.state.AppendEntry(ConversationEntry{Role: RoleUser, Content: query})
	c.state.SetThinking(true)

	result, err := c.api.Analyze(ctx, sessionID, query, loc.Latitude, loc.Longitude)
	if err != nil {
		c.logger.Error("Client", "Analyze failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		c.state.AppendEntry(ConversationEntry{
			Role:    RoleAssistant,
			Content: ErrorReplyContent,
			IsError: true,
		})
		return err
	}

	c.applyAnalyzeResult(ctx, result)
	return nil
}

// applyAnalyzeResult merges one advisory into state using the same rules as
// the push stream: weather replaced, satellite presence-gated, panels
// swapped, location moved only when the advisory names one.
func (c *Client) applyAnalyzeResult(ctx context.Context, result *AnalyzeResult) {
	if result.Weather != nil {
		c.state.SetWeather(result.Weather)
	}
	c.state.MergeSatellite(result.Satellite)
	c.state.ReplacePanels(Panels{
		Citations: result.RAGResults,
		Market:    result.MarketData,
		Chemicals: result.ChemicalData,
	})

	if result.Latitude != nil && result.Longitude != nil {
		label := result.Address
		if label == "" {
			label = fmt.Sprintf("%.4f, %.4f", *result.Latitude, *result.Longitude)
		}
		c.state.SetLocation(Location{
			Latitude:  *result.Latitude,
			Longitude: *result.Longitude,
			Label:     label,
			Zoom:      DefaultZoom,
		})
	} else {
		// The advisory stayed at the current location; refresh the widgets
		// in place so they are not left stale.
		if err := c.RefreshTelemetry(ctx); err != nil {
			c.logger.Warn("Client", "Telemetry refresh failed", map[string]interface{}{"error": err.Error()})
		}
	}

	content := result.FullResponse
	if content == "" {
		content = result.VoiceResponse
	}
	if strings.TrimSpace(content) == "" {
		c.state.AppendEntry(ConversationEntry{
			Role:    RoleAssistant,
			Content: ErrorReplyContent,
			IsError: true,
		})
		return
	}

	ts, err := time.Parse(time.RFC3339, result.Timestamp)
	if err != nil {
		ts = time.Now()
	}
	c.state.AppendEntry(ConversationEntry{
		Role:      RoleAssistant,
		Content:   content,
		Sources:   result.Sources,
		Timestamp: ts,
	})
}

// RefreshTelemetry fetches current conditions for the focus location. On
// failure the cached telemetry is cleared rather than left stale.
func (c *Client) RefreshTelemetry(ctx context.Context) error {
	loc := c.state.Location()
	telemetry, err := c.api.FetchTelemetry(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		c.state.ClearTelemetry()
		return err
	}

	if telemetry.Weather != nil {
		c.state.SetWeather(telemetry.Weather)
	}
	c.state.MergeSatellite(telemetry.Satellite)
	return nil
}

// ResetSession starts a fresh conversation: the gateway is notified on a
// best-effort basis, then the local identity and state are replaced
// atomically. A server that is down never blocks the local reset. A running
// push stream stays subscribed to the old session; restart Run to follow
// the new one.
func (c *Client) ResetSession(ctx context.Context) (string, error) {
	oldID := c.SessionID()

	// Fire and forget: the local session is the source of truth, so the
	// notification is not awaited, only reported when it fails.
	go func() {
		notifyCtx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
		defer cancel()
		if err := c.api.Reset(notifyCtx, oldID); err != nil {
			c.logger.Warn("Client", "Server-side reset failed", map[string]interface{}{
				"session_id": oldID,
				"error":      err.Error(),
			})
		}
	}()

	newID, err := c.store.Reset()
	if err != nil {
		return "", err
	}

	c.submitMu.Lock()
	c.sessionID = newID
	c.lastSubmit = time.Time{}
	c.submitMu.Unlock()

	c.state.Reset()
	return newID, nil
}

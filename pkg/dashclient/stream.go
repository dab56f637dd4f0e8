package dashclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Reconnect policy: a fixed pause between attempts, and a bounded number of
// consecutive failures before the stream gives up for good.
const (
	DefaultReconnectDelay = 3 * time.Second
	DefaultMaxReconnects  = 5
)

// StreamURL derives the push-stream endpoint from the gateway base URL:
// same host, websocket scheme, /ws/dashboard path, session id in the query.
func StreamURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/dashboard"
	u.RawQuery = url.Values{"session_id": {sessionID}}.Encode()
	return u.String(), nil
}

// Stream consumes the gateway's push channel and folds every decoded frame
// into the shared state. Frames that fail to decode are logged and dropped;
// the stream itself stays up.
type Stream struct {
	url    string
	state  *State
	logger Logger

	reconnectDelay time.Duration
	maxReconnects  int
}

func NewStream(url string, state *State, log Logger) *Stream {
	if log == nil {
		log = NewNopLogger()
	}
	return &Stream{
		url:            url,
		state:          state,
		logger:         log,
		reconnectDelay: DefaultReconnectDelay,
		maxReconnects:  DefaultMaxReconnects,
	}
}

// Run connects and reads until ctx is cancelled or the reconnect budget is
// exhausted. The connected flag in state mirrors the link lifecycle and is
// written nowhere else.
func (s *Stream) Run(ctx context.Context) error {
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
		if err != nil {
			failures++
			s.logger.Warn("Stream", "Dial failed", map[string]interface{}{
				"url":     s.url,
				"attempt": failures,
				"error":   err.Error(),
			})
			if failures >= s.maxReconnects {
				return fmt.Errorf("stream gave up after %d attempts: %w", failures, err)
			}
			if !sleepCtx(ctx, s.reconnectDelay) {
				return ctx.Err()
			}
			continue
		}

		failures = 0
		s.state.setConnected(true)
		s.logger.Info("Stream", "Connected", map[string]interface{}{"url": s.url})

		err = s.readLoop(ctx, conn)
		conn.Close()
		s.state.setConnected(false)

		if ctx.Err() != nil {
			return ctx.Err()
		}

		failures++
		s.logger.Warn("Stream", "Connection lost", map[string]interface{}{
			"attempt": failures,
			"error":   err.Error(),
		})
		if failures >= s.maxReconnects {
			return fmt.Errorf("stream gave up after %d attempts: %w", failures, err)
		}
		if !sleepCtx(ctx, s.reconnectDelay) {
			return ctx.Err()
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Closing the connection on ctx cancel unblocks ReadMessage.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		update, err := DecodeUpdate(data)
		if err != nil {
			s.logger.Debug("Stream", "Dropped frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		s.state.Apply(update)
	}
}

// sleepCtx waits d or until ctx is done, reporting whether the full delay
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package service

import (
	"context"
	"encoding/json"

	"agri-advisor/internal/pkg/logger"
	internalWS "agri-advisor/internal/websocket"
	"agri-advisor/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IDispatcherService interface {
	Run(ctx context.Context) error
}

// dispatcherService bridges the in-process event bus to the websocket hub:
// every dashboard event becomes one stream push for its session.
type dispatcherService struct {
	bus    *events.Bus
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewDispatcherService(bus *events.Bus, hub *internalWS.Hub, log logger.ILogger) IDispatcherService {
	return &dispatcherService{
		bus:    bus,
		hub:    hub,
		logger: log,
	}
}

func (ds *dispatcherService) Run(ctx context.Context) error {
	messages, err := ds.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			ds.processMessage(msg)
		}
	}()

	return nil
}

func (ds *dispatcherService) processMessage(msg *message.Message) {
	var evt events.DashboardEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		ds.logger.Error("Dispatcher", "Failed to unmarshal event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	ds.hub.Send(evt.SessionID, evt.Type, evt.Payload)
	msg.Ack()
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Publisher is the side services depend on to emit dashboard events.
type Publisher interface {
	Publish(ctx context.Context, event DashboardEvent) error
}

// Bus is an in-process pub/sub built on watermill's gochannel transport.
// Single-binary deployments need nothing heavier; cross-instance fanout is
// the websocket hub's Redis relay, not the bus.
type Bus struct {
	pubSub *gochannel.GoChannel
}

func NewBus() *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	return &Bus{pubSub: pubSub}
}

func (b *Bus) Publish(ctx context.Context, event DashboardEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal dashboard event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	return b.pubSub.Publish(TopicDashboard, msg)
}

// Subscribe returns the raw watermill channel for TopicDashboard. Consumers
// must Ack every message.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, TopicDashboard)
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}

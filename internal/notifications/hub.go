package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Hub broadcasts feed events over Redis pub/sub so open console tabs can
// refresh without polling.
type Hub struct {
	client *redis.Client
}

// NewHub instantiates the hub.
func NewHub(client *redis.Client) *Hub {
	return &Hub{client: client}
}

func councilChannel(councilID string) string {
	return fmt.Sprintf("notify:council:%s", councilID)
}

// Event is the payload published on a council channel.
type Event struct {
	Kind  Kind   `json:"kind"`
	Title string `json:"title"`
}

// Publish announces an event on the council's channel. A nil hub is a no-op.
func (h *Hub) Publish(ctx context.Context, councilID string, event Event) error {
	if h == nil || h.client == nil {
		return nil
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.client.Publish(ctx, councilChannel(councilID), raw).Err()
}

// Listen subscribes to a council channel and invokes fn per event until the
// context is cancelled.
func (h *Hub) Listen(ctx context.Context, councilID string, fn func(Event)) error {
	if h == nil || h.client == nil {
		return nil
	}
	pubsub := h.client.Subscribe(ctx, councilChannel(councilID))
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				fn(event)
			}
		}
	}()
	return nil
}

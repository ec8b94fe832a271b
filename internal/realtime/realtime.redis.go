// FilePath: internal/realtime/realtime.redis.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

type relayEnvelope struct {
	Origin string          `json:"origin"`
	Room   string          `json:"room,omitempty"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// RedisRelay shares broadcasts between hub instances over a redis pub/sub channel
type RedisRelay struct {
	client  *redis.Client
	channel string
	origin  string
	hub     *Hub
	out     chan relayEnvelope
	onDrop  func()
}

// NewRedisRelay creates a relay for hub; call Run to start it
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, onDrop func()) *RedisRelay {
	return &RedisRelay{
		client:  client,
		channel: channel,
		origin:  nuts.NID("hub", 12),
		hub:     hub,
		out:     make(chan relayEnvelope, hub.sendBuffer),
		onDrop:  onDrop,
	}
}

// Forward queues a local broadcast for publishing without blocking the caller
func (r *RedisRelay) Forward(room, event string, payload []byte) {
	select {
	case r.out <- relayEnvelope{Origin: r.origin, Room: room, Event: event, Data: payload}:
	default:
		if r.onDrop != nil {
			r.onDrop()
		}
	}
}

// Run subscribes to the channel and publishes queued broadcasts until ctx is done.
// It returns once the subscription is confirmed or failed; work continues in the background.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("error subscribing to %s: %w", r.channel, err)
	}
	r.hub.SetForwarder(r)
	nuts.L.Infof("[RedisRelay] Subscribed to %s as %s", r.channel, r.origin)

	go r.receive(ctx, sub)
	go r.publish(ctx)
	return nil
}

func (r *RedisRelay) receive(ctx context.Context, sub *redis.PubSub) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				nuts.L.Warnf("[RedisRelay] Ignoring malformed message: %v", err)
				continue
			}
			if env.Origin == r.origin {
				continue
			}
			r.hub.Deliver(env.Room, env.Event, env.Data)
		}
	}
}

func (r *RedisRelay) publish(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.out:
			body, err := json.Marshal(env)
			if err != nil {
				continue
			}
			if err := r.client.Publish(ctx, r.channel, body).Err(); err != nil {
				nuts.L.Warnf("[RedisRelay] Failed to publish %s: %v", env.Event, err)
			}
		}
	}
}

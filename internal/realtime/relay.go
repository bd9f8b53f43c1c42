package realtime

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRelayChannel is the pub/sub channel shared by all instances.
const DefaultRelayChannel = "kanban:events"

// relayEnvelope is the message published between instances.
type relayEnvelope struct {
	Instance string `json:"instance"`
	Origin   string `json:"origin,omitempty"`
	Event    Event  `json:"event"`
}

// RedisRelay forwards workspace events between server instances over Redis
// pub/sub so sessions connected to different instances see each other's
// changes. Delivery is at-most-once, like the local hub.
type RedisRelay struct {
	client     *redis.Client
	hub        *Hub
	outbox     chan Event
	ready      chan struct{}
	logger     *slog.Logger
	channel    string
	instanceID string
}

// NewRedisRelay creates a relay for hub. Call hub.SetRelay and then Run.
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *slog.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{
		client:     client,
		hub:        hub,
		outbox:     make(chan Event, 256),
		ready:      make(chan struct{}),
		logger:     logger,
		channel:    channel,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this process on the relay channel.
func (r *RedisRelay) InstanceID() string {
	return r.instanceID
}

// Ready is closed once the subscription is confirmed.
func (r *RedisRelay) Ready() <-chan struct{} {
	return r.ready
}

// Publish queues a local event for the other instances.
func (r *RedisRelay) Publish(evt Event) {
	select {
	case r.outbox <- evt:
	default:
		r.logger.Warn("relay outbox full, dropping event",
			"event_type", evt.Type,
			"workspace_id", evt.WorkspaceID,
		)
	}
}

// Run subscribes to the relay channel and pumps events in both directions
// until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	close(r.ready)

	r.logger.Info("realtime relay subscribed",
		"channel", r.channel,
		"instance_id", r.instanceID,
	)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil

		case evt := <-r.outbox:
			r.publish(ctx, evt)

		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.receive(msg.Payload)
		}
	}
}

func (r *RedisRelay) publish(ctx context.Context, evt Event) {
	payload, err := json.Marshal(relayEnvelope{
		Instance: r.instanceID,
		Origin:   evt.Origin,
		Event:    evt,
	})
	if err != nil {
		r.logger.Error("failed to encode relay event", "event_type", evt.Type, "error", err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := r.client.Publish(pubCtx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("failed to publish relay event",
			"event_type", evt.Type,
			"workspace_id", evt.WorkspaceID,
			"error", err,
		)
	}
}

func (r *RedisRelay) receive(payload string) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		r.logger.Warn("discarding malformed relay message", "error", err)
		return
	}
	if env.Instance == r.instanceID {
		return
	}
	evt := env.Event
	evt.Origin = env.Origin
	evt.Seq = 0
	r.hub.Deliver(evt)
}

package providers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"

	"github.com/listenupapp/kanban-server/internal/config"
	"github.com/listenupapp/kanban-server/internal/logger"
	"github.com/listenupapp/kanban-server/internal/presence"
	"github.com/listenupapp/kanban-server/internal/realtime"
)

// relayStartTimeout bounds how long startup waits for the relay subscription.
const relayStartTimeout = 5 * time.Second

// RealtimeHandle owns the broadcaster, the presence tracker and the optional
// cross-instance relay, and the goroutines that drive them.
type RealtimeHandle struct {
	Hub     *realtime.Hub
	Tracker *presence.Tracker
	Relay   *realtime.RedisRelay

	redis  *redis.Client
	cancel context.CancelFunc
	log    *logger.Logger
}

// Shutdown implements do.Shutdownable. Queued events are drained before the
// sweeper and relay stop.
func (h *RealtimeHandle) Shutdown() error {
	ctx, cancel := shutdownContext()
	defer cancel()

	err := h.Hub.Shutdown(ctx)
	h.cancel()
	if h.redis != nil {
		err = errors.Join(err, h.redis.Close())
	}
	return err
}

// ProvideRealtime wires the hub to the tracker and relay, then starts them.
func ProvideRealtime(i do.Injector) (*RealtimeHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	hub := realtime.NewHub(realtime.Options{
		QueueSize:         cfg.Realtime.QueueSize,
		SessionBuffer:     cfg.Realtime.SessionBuffer,
		HeartbeatInterval: cfg.Realtime.HeartbeatInterval,
	}, log.Logger)

	tracker := presence.NewTracker(hub, cfg.Realtime.CursorTTL, log.Logger)
	hub.SetDirectory(tracker)
	hub.OnDisconnect(func(s *realtime.Session) {
		tracker.LeaveAll(s.ID)
	})

	ctx, cancel := context.WithCancel(context.Background())
	handle := &RealtimeHandle{
		Hub:     hub,
		Tracker: tracker,
		cancel:  cancel,
		log:     log,
	}

	if cfg.Redis.Enabled() {
		if err := handle.startRelay(ctx, cfg.Redis); err != nil {
			cancel()
			return nil, err
		}
	}

	go hub.Start(ctx)
	go tracker.Run(ctx)

	log.Info("Realtime hub started",
		"queue_size", cfg.Realtime.QueueSize,
		"heartbeat_interval", cfg.Realtime.HeartbeatInterval,
		"cursor_ttl", cfg.Realtime.CursorTTL,
		"relay", handle.Relay != nil,
	)

	return handle, nil
}

func (h *RealtimeHandle) startRelay(ctx context.Context, cfg config.RedisConfig) error {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, relayStartTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return err
	}

	relay := realtime.NewRedisRelay(client, cfg.Channel, h.Hub, h.log.Logger)
	h.Hub.SetRelay(relay)
	h.Relay = relay
	h.redis = client

	relayLog := h.log.WithField("channel", cfg.Channel)
	go func() {
		if err := relay.Run(ctx); err != nil {
			relayLog.WithError(err).Error("Realtime relay stopped")
		}
	}()

	select {
	case <-relay.Ready():
	case <-pingCtx.Done():
		relayLog.Warn("Realtime relay subscription not confirmed yet")
	}
	return nil
}

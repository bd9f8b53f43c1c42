package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/kanban-server/internal/id"
	"github.com/listenupapp/kanban-server/internal/syncmap"
)

// Session is one connected client.
type Session struct {
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}
	ID          string
	UserID      string
	UserName    string

	// seq is owned by the broadcast goroutine.
	seq       uint64
	closeOnce sync.Once
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.Done) })
}

// Directory resolves a workspace to the sessions joined to it.
type Directory interface {
	Subscribers(workspaceID string) []string
}

// Relay forwards locally originated events to other server instances.
// Publish must not block.
type Relay interface {
	Publish(evt Event)
}

// Options configures a Hub.
type Options struct {
	QueueSize         int
	SessionBuffer     int
	HeartbeatInterval time.Duration
}

// DefaultOptions returns the settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		QueueSize:         1000,
		SessionBuffer:     100,
		HeartbeatInterval: 30 * time.Second,
	}
}

// Hub fans events out to sessions.
//
// Every event goes through one FIFO queue drained by one goroutine, so two
// events emitted in order by the same caller are delivered to each session
// in that order.
type Hub struct {
	directory    Directory
	relay        Relay
	sessions     *syncmap.Map[string, *Session]
	events       chan Event
	logger       *slog.Logger
	onDisconnect []func(*Session)
	opts         Options
	wg           sync.WaitGroup

	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewHub creates a Hub. Start must be called exactly once, or Shutdown
// waits for its ctx to expire.
func NewHub(opts Options, logger *slog.Logger) *Hub {
	defaults := DefaultOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaults.QueueSize
	}
	if opts.SessionBuffer <= 0 {
		opts.SessionBuffer = defaults.SessionBuffer
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaults.HeartbeatInterval
	}
	h := &Hub{
		sessions: syncmap.New[string, *Session](),
		events:   make(chan Event, opts.QueueSize),
		logger:   logger,
		opts:     opts,
	}
	h.wg.Add(1) // released when Start returns
	return h
}

// SetDirectory sets the workspace subscription directory. Must be called
// before Start.
func (h *Hub) SetDirectory(d Directory) {
	h.directory = d
}

// SetRelay enables cross-instance delivery. Must be called before Start.
func (h *Hub) SetRelay(r Relay) {
	h.relay = r
}

// OnDisconnect registers fn to run when a session disconnects. Must be
// called before Start.
func (h *Hub) OnDisconnect(fn func(*Session)) {
	h.onDisconnect = append(h.onDisconnect, fn)
}

// Start runs the delivery loop until ctx is cancelled or Shutdown drains
// the queue.
func (h *Hub) Start(ctx context.Context) {
	defer h.wg.Done()

	h.logger.Info("realtime hub starting")

	heartbeat := time.NewTicker(h.opts.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-h.events:
			if !ok {
				h.closeAllSessions()
				return
			}
			h.broadcast(event)

		case <-heartbeat.C:
			h.broadcast(NewHeartbeatEvent())

		case <-ctx.Done():
			h.logger.Info("realtime hub stopping")
			h.closeAllSessions()
			return
		}
	}
}

// Shutdown stops accepting events and waits for queued events to be
// delivered, or for ctx to expire.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownMu.Lock()
	if h.shutdown {
		h.shutdownMu.Unlock()
		return nil
	}
	h.shutdown = true
	close(h.events)
	h.shutdownMu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("realtime hub drained")
		return nil
	case <-ctx.Done():
		h.logger.Warn("realtime hub drain timed out, some events may be lost")
		return ctx.Err()
	}
}

// Broadcast queues an event for every session joined to workspaceID except
// origin's session.
func (h *Hub) Broadcast(workspaceID string, eventType EventType, payload any, origin Origin) {
	h.Emit(NewEvent(workspaceID, eventType, payload, origin))
}

// Send queues an event for a single session.
func (h *Hub) Send(sessionID string, event Event) {
	event.Target = sessionID
	h.Emit(event)
}

// Deliver queues an event received from another instance. It is delivered
// locally and not relayed again.
func (h *Hub) Deliver(event Event) {
	event.remote = true
	h.Emit(event)
}

// Emit queues an event. It never blocks: when the queue is full the event
// is dropped and logged.
func (h *Hub) Emit(event Event) {
	h.shutdownMu.RLock()
	defer h.shutdownMu.RUnlock()

	if h.shutdown {
		return
	}

	select {
	case h.events <- event:
	default:
		h.logger.Error("realtime queue full, dropping event",
			"event_type", event.Type,
			"workspace_id", event.WorkspaceID,
		)
	}
}

func (h *Hub) broadcast(event Event) {
	switch {
	case event.Type == EventHeartbeat:
		for _, s := range h.sessions.All() {
			h.deliver(s, event)
		}
		return

	case event.Target != "":
		if s, ok := h.sessions.Load(event.Target); ok {
			h.deliver(s, event)
		}
		return
	}

	var delivered, dropped, excluded int
	if h.directory != nil {
		for _, sessionID := range h.directory.Subscribers(event.WorkspaceID) {
			if sessionID == event.Origin {
				excluded++
				continue
			}
			s, ok := h.sessions.Load(sessionID)
			if !ok {
				continue
			}
			if h.deliver(s, event) {
				delivered++
			} else {
				dropped++
			}
		}
	}

	if h.relay != nil && !event.remote {
		h.relay.Publish(event)
	}

	h.logger.Debug("event broadcast",
		slog.String("event_type", string(event.Type)),
		slog.String("workspace_id", event.WorkspaceID),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("excluded", excluded),
			slog.Int("dropped", dropped)))
}

// deliver performs a non-blocking send to one session.
func (h *Hub) deliver(s *Session, event Event) bool {
	if event.Type != EventHeartbeat {
		s.seq++
		event.Seq = s.seq
	}
	select {
	case s.Events <- event:
		return true
	default:
		h.logger.Warn("dropped event for slow session",
			"session_id", s.ID,
			"event_type", event.Type,
		)
		return false
	}
}

// Connect registers a new session and queues its connected event.
func (h *Hub) Connect(userID, userName string) (*Session, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:          sessionID,
		UserID:      userID,
		UserName:    userName,
		Events:      make(chan Event, h.opts.SessionBuffer),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}
	h.sessions.Store(s.ID, s)
	h.Send(s.ID, NewConnectedEvent(s.ID))

	h.logger.Info("realtime session connected",
		"session_id", s.ID,
		"user_id", userID,
		"total_sessions", h.sessions.Len(),
	)
	return s, nil
}

// Disconnect removes a session and runs the disconnect hooks.
func (h *Hub) Disconnect(sessionID string) {
	s, ok := h.sessions.LoadAndDelete(sessionID)
	if !ok {
		return
	}
	s.close()
	for _, fn := range h.onDisconnect {
		fn(s)
	}

	h.logger.Info("realtime session disconnected",
		"session_id", sessionID,
		"duration", time.Since(s.ConnectedAt),
		"total_sessions", h.sessions.Len(),
	)
}

// Session returns a connected session.
func (h *Hub) Session(sessionID string) (*Session, bool) {
	return h.sessions.Load(sessionID)
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	return h.sessions.Len()
}

func (h *Hub) closeAllSessions() {
	for _, s := range h.sessions.Clear() {
		s.close()
		for _, fn := range h.onDisconnect {
			fn(s)
		}
	}
	h.logger.Info("all realtime sessions closed")
}

package api

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/kanban-server/internal/auth"
	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/presence"
	"github.com/listenupapp/kanban-server/internal/ratelimit"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/service"
	"github.com/listenupapp/kanban-server/internal/store/sqlite"
	"github.com/listenupapp/kanban-server/internal/store/storetest"
)

// testEnvelope mirrors the response envelope for decoding in tests.
type testEnvelope[T any] struct {
	Data    T    `json:"data"`
	Version int  `json:"v"`
	Success bool `json:"success"`
	Error   struct {
		Details any    `json:"details"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// testServer is a fully wired API server over a temporary SQLite database.
type testServer struct {
	*Server
	api     humatest.TestAPI
	fixture *storetest.Fixture
	tokens  *auth.TokenService
}

type testServerOptions struct {
	limiter *ratelimit.KeyedRateLimiter
}

func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, testServerOptions{})
}

func setupTestServerWith(t *testing.T, opts testServerOptions) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := auth.NewTokenService(strings.Repeat("ab", 32), time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := realtime.NewHub(realtime.DefaultOptions(), logger)
	tracker := presence.NewTracker(hub, 5*time.Second, logger)
	hub.SetDirectory(tracker)
	hub.OnDisconnect(func(s *realtime.Session) { tracker.LeaveAll(s.ID) })
	go hub.Start(ctx)

	locks := ordering.NewScopeLocks()
	reconciler := ordering.NewReconciler(st, locks, logger)
	mover := ordering.NewMover(st, locks, logger)

	access := service.NewAccessService(st, logger)
	activity := service.NewActivityService(st, access, logger)
	services := &Services{
		Access:    access,
		Activity:  activity,
		User:      service.NewUserService(st, logger),
		Workspace: service.NewWorkspaceService(st, access, activity, reconciler, locks, hub, tracker, logger),
		List:      service.NewListService(st, access, activity, reconciler, locks, hub, logger),
		Card:      service.NewCardService(st, access, activity, mover, locks, hub, logger),
		Presence:  service.NewPresenceService(tracker, access),
	}

	srv := NewServer(st, services, hub, tracker, tokens, Options{
		Version:     "test",
		RateLimiter: opts.limiter,
	}, logger)

	return &testServer{
		Server:  srv,
		api:     humatest.Wrap(t, srv.API()),
		fixture: storetest.NewFixture(t, st),
		tokens:  tokens,
	}
}

// user creates a user and returns it with an Authorization header.
func (ts *testServer) user(t *testing.T, name string) (*domain.User, string) {
	t.Helper()
	u := ts.fixture.User(name)
	token, err := ts.tokens.GenerateAccessToken(u)
	require.NoError(t, err)
	return u, "Authorization: Bearer " + token
}

// decode unmarshals an enveloped response body.
func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

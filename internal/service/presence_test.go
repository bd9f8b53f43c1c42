package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/presence"
	"github.com/listenupapp/kanban-server/internal/realtime"
)

type nopHub struct{}

func (nopHub) Broadcast(string, realtime.EventType, any, realtime.Origin) {}
func (nopHub) Send(string, realtime.Event)                                {}

func TestPresenceService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tracker := presence.NewTracker(nopHub{}, time.Minute, slog.New(slog.DiscardHandler))
	svc := NewPresenceService(tracker, env.access)

	tracker.Join("sess-owner", env.owner.ID, env.owner.Name, env.ws.ID)

	members, err := svc.Members(ctx, env.ownerAs, env.ws.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "sess-owner", members[0].SessionID)

	require.NoError(t, svc.MoveCursor(ctx, env.ownerAs, env.ws.ID, CursorRequest{X: 10, Y: 20}))
	members, err = svc.Members(ctx, env.ownerAs, env.ws.ID)
	require.NoError(t, err)
	require.NotNil(t, members[0].Cursor)
	assert.Equal(t, 10.0, members[0].Cursor.X)

	noSession := env.ownerAs
	noSession.SessionID = ""
	assert.ErrorIs(t, svc.MoveCursor(ctx, noSession, env.ws.ID, CursorRequest{}), domainerrors.ErrValidation)

	notJoined := env.ownerAs
	notJoined.SessionID = "sess-other"
	assert.ErrorIs(t, svc.MoveCursor(ctx, notJoined, env.ws.ID, CursorRequest{}), domainerrors.ErrNotFound)

	stranger := env.actor(env.User("stranger"), "sess-owner")
	_, err = svc.Members(ctx, stranger, env.ws.ID)
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
}

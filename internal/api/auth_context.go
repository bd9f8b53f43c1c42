package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/listenupapp/kanban-server/internal/auth"
	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/service"
)

// SessionHeader carries the realtime session ID of the caller. Events caused
// by the request are not echoed back to that session.
const SessionHeader = "X-Session-ID"

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	identityKey  ctxKey = "identity"
	authErrorKey ctxKey = "auth_error"
)

// identity is what the auth middleware learned about the caller.
type identity struct {
	UserID    string
	Email     string
	Name      string
	SessionID string
}

// authMiddleware validates Bearer tokens and stores the caller in context.
// Requests without a valid token continue anonymously; operations that need
// a user reject them through requireActor.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.tokens.VerifyAccessToken(token)
		if err != nil {
			ctx := context.WithValue(r.Context(), authErrorKey, err)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Name:      claims.Name,
			SessionID: strings.TrimSpace(r.Header.Get(SessionHeader)),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUserID returns the authenticated user ID from context.
// Returns an unauthorized error if the request carried no valid token.
func GetUserID(ctx context.Context) (string, error) {
	who, err := getIdentity(ctx)
	if err != nil {
		return "", err
	}
	return who.UserID, nil
}

func getIdentity(ctx context.Context) (identity, error) {
	if who, ok := ctx.Value(identityKey).(identity); ok && who.UserID != "" {
		return who, nil
	}
	if err, ok := ctx.Value(authErrorKey).(error); ok {
		if errors.Is(err, auth.ErrTokenExpired) {
			return identity{}, domainerrors.TokenExpired("access token expired")
		}
		return identity{}, domainerrors.Unauthorized("invalid access token")
	}
	return identity{}, domainerrors.Unauthorized("authentication required")
}

// requireActor returns the caller as a service.Actor. The display name comes
// from the stored user so renames show up before the token is reissued.
func (s *Server) requireActor(ctx context.Context) (service.Actor, error) {
	who, err := getIdentity(ctx)
	if err != nil {
		return service.Actor{}, err
	}

	user, err := s.services.User.GetUser(ctx, who.UserID)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return service.Actor{}, domainerrors.Unauthorized("user no longer exists")
		}
		return service.Actor{}, err
	}

	return service.Actor{
		UserID:    user.ID,
		UserName:  user.DisplayName(),
		SessionID: who.SessionID,
	}, nil
}

// identifyRealtime authenticates a realtime connection. Browsers cannot set
// headers on EventSource or websocket requests, so the token may also arrive
// as the access_token query parameter.
func (s *Server) identifyRealtime(r *http.Request) (realtime.Identity, error) {
	ctx := r.Context()
	if _, ok := ctx.Value(identityKey).(identity); !ok {
		if token := r.URL.Query().Get("access_token"); token != "" {
			claims, err := s.tokens.VerifyAccessToken(token)
			if err != nil {
				return realtime.Identity{}, domainerrors.Unauthorized("invalid access token")
			}
			ctx = context.WithValue(ctx, identityKey, identity{UserID: claims.UserID, Email: claims.Email, Name: claims.Name})
		}
	}

	actor, err := s.requireActor(ctx)
	if err != nil {
		return realtime.Identity{}, err
	}
	return realtime.Identity{UserID: actor.UserID, UserName: actor.UserName}, nil
}

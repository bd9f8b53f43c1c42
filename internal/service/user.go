package service

import (
	"context"
	"log/slog"

	"github.com/listenupapp/kanban-server/internal/domain"
	"github.com/listenupapp/kanban-server/internal/id"
	"github.com/listenupapp/kanban-server/internal/normalize"
	"github.com/listenupapp/kanban-server/internal/store"
	"github.com/listenupapp/kanban-server/internal/validation"
)

// UserService manages user accounts. Accounts are provisioned by operators;
// there is no self-registration.
type UserService struct {
	store     store.Store
	logger    *slog.Logger
	validator *validation.Validator
}

// NewUserService creates a new user service.
func NewUserService(store store.Store, logger *slog.Logger) *UserService {
	return &UserService{store: store, logger: logger, validator: validation.New()}
}

// CreateUserRequest contains fields for provisioning a user.
type CreateUserRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Name  string `json:"name" validate:"notblank,max=100"`
}

// CreateUser provisions a user. Emails are unique ignoring case.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	req.Email = normalize.Email(req.Email)
	req.Name = normalize.Title(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Email: req.Email, Name: req.Name}
	u.ID = userID
	u.InitTimestamps()

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, storeError(err, "user %s", req.Email)
	}

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// GetUser returns a user by ID.
func (s *UserService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user %s", userID)
	}
	return u, nil
}

// GetUserByEmail returns a user by email, ignoring case.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.store.GetUserByEmail(ctx, normalize.Email(email))
	if err != nil {
		return nil, storeError(err, "user %s", email)
	}
	return u, nil
}

// ListUsers returns every user.
func (s *UserService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeError(err, "users")
	}
	return users, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/examportal/examportal-backend/internal/clock"
	"github.com/examportal/examportal-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// UserService manages participant accounts. Passwords for new accounts are
// generated server-side and delivered through the notifier.
type UserService struct {
	users       UserStore
	permissions PermissionStore
	results     ResultStore
	auth        *AuthService
	rdb         *redis.Client
	clk         clock.Clock
	log         zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	users UserStore,
	permissions PermissionStore,
	results ResultStore,
	auth *AuthService,
	rdb *redis.Client,
	clk clock.Clock,
	log zerolog.Logger,
) *UserService {
	return &UserService{
		users:       users,
		permissions: permissions,
		results:     results,
		auth:        auth,
		rdb:         rdb,
		clk:         clk,
		log:         log.With().Str("component", "user_service").Logger(),
	}
}

// CreateParticipant creates a participant account with a generated password
// and queues a credentials notification. Username and email must be unused.
func (s *UserService) CreateParticipant(ctx context.Context, username, email string) (*model.User, error) {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	password, err := GeneratePassword(12)
	if err != nil {
		return nil, err
	}
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleParticipant,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	emitEvent(ctx, s.rdb, s.log, Event{
		Type:       EventUserCredentials,
		OccurredAt: s.clk.Now(),
		UserID:     user.ID,
		Fields: map[string]string{
			"username": username,
			"email":    email,
			"password": password,
		},
	})

	s.log.Info().Int("user_id", user.ID).Str("username", username).Msg("Participant created")
	return user, nil
}

// ListParticipants returns all participant accounts.
func (s *UserService) ListParticipants(ctx context.Context) ([]model.User, error) {
	return s.users.ListByRole(ctx, model.RoleParticipant)
}

// Get retrieves an account by id.
func (s *UserService) Get(ctx context.Context, id int) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// DeleteParticipant removes a participant and cascades their results and
// assignment windows. Admin accounts are not deletable through this path.
func (s *UserService) DeleteParticipant(ctx context.Context, id int) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		return ErrAccessDenied
	}

	if err := s.results.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	if err := s.permissions.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("delete permissions: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info().Int("user_id", id).Msg("Participant deleted")
	return nil
}

// Package account implements signup, login and the per-user tasks document
// on top of a storage.UserStore.
//
// Operations validate their input before touching the store and return
// *Error values whose Kind tells the caller what went wrong. Nothing is
// retried here.
//
// Two races are accepted. Signup checks for an existing username and then
// inserts, so concurrent signups for one name can both succeed. Updates are
// unconditional and the last write wins.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hongminglow/tasks-be/internal/models"
	"github.com/hongminglow/tasks-be/internal/security"
	"github.com/hongminglow/tasks-be/internal/storage"
)

type CreateAccountInput struct {
	Username string `validate:"required"`
	Name     string `validate:"required"`
	Password string `validate:"required"`
}

type Credentials struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// UpdateProfileInput carries a partial update. A nil Tasks or Timezone means
// the field was not supplied; an empty but non-nil Tasks overwrites.
type UpdateProfileInput struct {
	Username string `validate:"required"`
	Tasks    json.RawMessage
	Timezone *string
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPasswordScheme selects how passwords are stored and compared.
func WithPasswordScheme(scheme security.Scheme) Option {
	return func(s *Service) { s.scheme = scheme }
}

// Service exposes the account operations.
type Service struct {
	store    storage.UserStore
	validate *validator.Validate
	scheme   security.Scheme
	now      func() time.Time
}

func NewService(store storage.UserStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: validator.New(),
		scheme:   security.Plaintext,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount registers a new user with empty tasks and the default timezone.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (models.Profile, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.Profile{}, validationError("Username, name, and password are required")
	}

	_, err := s.store.FindOne(ctx, storage.ByUsername(in.Username))
	switch {
	case err == nil:
		return models.Profile{}, &Error{Kind: KindConflict, Message: "Username already exists"}
	case !errors.Is(err, storage.ErrNotFound):
		return models.Profile{}, storeError("look up username", err)
	}

	password, err := s.scheme.Seal(in.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return models.Profile{}, validationError("Password is too long")
		}
		return models.Profile{}, storeError("seal password", err)
	}

	user := models.UserRecord{
		Username:  in.Username,
		Name:      in.Name,
		Password:  password,
		Tasks:     models.EmptyTasks,
		Timezone:  models.DefaultTimezone,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertOne(ctx, user); err != nil {
		return models.Profile{}, storeError("insert user", err)
	}
	return user.Profile(), nil
}

// Authenticate checks the credentials and returns the matching profile.
// Unknown usernames and wrong passwords produce the same error.
//
// With a plaintext scheme any record with both the username and password
// matches. A hashed scheme can only filter by username, so when a signup
// race left duplicates only the earliest record's hash is checked.
func (s *Service) Authenticate(ctx context.Context, in Credentials) (models.Profile, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.Profile{}, validationError("Username and password are required")
	}

	filter := storage.ByCredentials(in.Username, in.Password)
	if s.scheme.Hashed() {
		filter = storage.ByUsername(in.Username)
	}

	user, err := s.store.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Profile{}, invalidCredentials()
		}
		return models.Profile{}, storeError("look up credentials", err)
	}
	if s.scheme.Hashed() && !s.scheme.Check(user.Password, in.Password) {
		return models.Profile{}, invalidCredentials()
	}
	return user.Profile(), nil
}

// ReadProfile returns the profile for username without checking a password.
func (s *Service) ReadProfile(ctx context.Context, username string) (models.Profile, error) {
	if err := s.requireUsername(username); err != nil {
		return models.Profile{}, err
	}

	user, err := s.store.FindOne(ctx, storage.ByUsername(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Profile{}, &Error{Kind: KindNotFound, Message: "User not found"}
		}
		return models.Profile{}, storeError("look up user", err)
	}
	return user.Profile(), nil
}

// UpdateProfile writes whichever of tasks and timezone were supplied and
// stamps updatedAt. An unknown username is not an error.
func (s *Service) UpdateProfile(ctx context.Context, in UpdateProfileInput) error {
	if err := s.validate.Struct(in); err != nil {
		return validationError("Username is required")
	}

	update := storage.Update{UpdatedAt: s.now()}
	if in.Tasks != nil {
		update.Tasks = in.Tasks
	}
	if in.Timezone != nil {
		tz := *in.Timezone
		update.Timezone = &tz
	}

	if err := s.store.UpdateOne(ctx, storage.ByUsername(in.Username), update); err != nil {
		return storeError("update user", err)
	}
	return nil
}

// ClearTasks resets the tasks document to {} and stamps updatedAt.
func (s *Service) ClearTasks(ctx context.Context, username string) error {
	if err := s.requireUsername(username); err != nil {
		return err
	}

	update := storage.Update{Tasks: models.EmptyTasks, UpdatedAt: s.now()}
	if err := s.store.UpdateOne(ctx, storage.ByUsername(username), update); err != nil {
		return storeError("clear tasks", err)
	}
	return nil
}

func (s *Service) requireUsername(username string) error {
	if err := s.validate.Var(username, "required"); err != nil {
		return validationError("Username is required")
	}
	return nil
}

func invalidCredentials() *Error {
	return &Error{Kind: KindAuthentication, Message: "Invalid credentials"}
}

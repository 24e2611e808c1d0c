package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"printdrop/internal/store"
)

var (
	ErrNameTaken          = errors.New("name already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles account registration and login.
type Service struct {
	store store.Store
}

// NewService creates a new account service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Register creates an account. The credential name must be unique per role.
func (s *Service) Register(ctx context.Context, role store.Role, name, secret, location string) (*store.Account, error) {
	acc := &store.Account{
		ID:        uuid.NewString(),
		Role:      role,
		Name:      name,
		Secret:    secret,
		Location:  location,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, store.ErrNameTaken) {
			return nil, ErrNameTaken
		}
		return nil, err
	}
	return acc, nil
}

// Authenticate looks up the account and checks the secret.
// Plain equality match against the stored secret: kept for compatibility
// with the deployed clients. A hardened deployment would store a salted hash.
func (s *Service) Authenticate(ctx context.Context, role store.Role, name, secret string) (*store.Account, error) {
	acc, err := s.store.GetAccountByName(ctx, role, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if acc.Secret != secret {
		return nil, ErrInvalidCredentials
	}
	return acc, nil
}

// Get returns the account by id.
func (s *Service) Get(ctx context.Context, id string) (*store.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// Lookup returns the account by role and credential name.
func (s *Service) Lookup(ctx context.Context, role store.Role, name string) (*store.Account, error) {
	return s.store.GetAccountByName(ctx, role, name)
}

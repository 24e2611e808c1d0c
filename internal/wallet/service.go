package wallet

import (
	"context"
	"errors"

	"printdrop/internal/logging"
	"printdrop/internal/store"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Service handles wallet balance operations.
type Service struct {
	store store.Store
}

// NewService creates a new wallet service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Balance returns the current balance for an account.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	acc, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Recharge adds the given amount to the account balance and returns the new
// balance. Amounts must be positive; there is no debit path here (print
// charging is handled by the kiosk agent, outside this service).
func (s *Service) Recharge(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.store.AddBalance(ctx, userID, amount)
	if err != nil {
		return 0, err
	}

	logging.Internal.Printf("wallet recharge: user=%s amount=%d balance=%d", userID, amount, balance)
	return balance, nil
}

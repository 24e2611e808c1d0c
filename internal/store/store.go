package store

import (
	"context"
	"time"
)

// Role distinguishes the two account types.
type Role string

const (
	RoleUser  Role = "user"
	RoleKiosk Role = "kiosk"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleKiosk
}

// Account is a registered user or kiosk.
type Account struct {
	ID        string
	Role      Role
	Name      string
	Secret    string
	Location  string
	Balance   int64
	CreatedAt time.Time
}

// FileMeta contains metadata about an uploaded file.
type FileMeta struct {
	ID          string
	UserID      string
	KioskID     string
	Filename    string
	ContentType string
	Size        int64
	Color       string
	Copies      int
	CreatedAt   time.Time
}

// Stats contains aggregate statistics about the database.
type Stats struct {
	TotalUsers  int
	TotalKiosks int
	TotalFiles  int
	TotalBytes  int64
	OldestFile  time.Time
	NewestFile  time.Time
}

// Store defines the interface for account and file metadata persistence.
type Store interface {
	CreateAccount(ctx context.Context, acc *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	GetAccountByName(ctx context.Context, role Role, name string) (*Account, error)
	AddBalance(ctx context.Context, id string, amount int64) (int64, error)

	SaveFileMetadata(ctx context.Context, meta *FileMeta) error
	GetFileMetadata(ctx context.Context, id string) (*FileMeta, error)
	ListFilesByUser(ctx context.Context, userID string) ([]*FileMeta, error)
	DeleteFileMetadata(ctx context.Context, id string) error

	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

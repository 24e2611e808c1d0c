package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"printdrop/internal/logging"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrNameTaken = errors.New("name already taken")
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	logging.Store.Printf("opened database %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id TEXT PRIMARY KEY,
			role TEXT NOT NULL,
			name TEXT NOT NULL,
			secret TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			balance INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			UNIQUE (role, name)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			kiosk_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size INTEGER NOT NULL,
			color TEXT NOT NULL DEFAULT 'black_white',
			copies INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_files_user ON files (user_id, created_at)`)
	return err
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, acc *Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, role, name, secret, location, balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, acc.ID, string(acc.Role), acc.Name, acc.Secret, acc.Location, acc.Balance, acc.CreatedAt)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrNameTaken
	}
	return err
}

func (s *SQLiteStore) GetAccount(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, role, name, secret, location, balance, created_at
		FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

func (s *SQLiteStore) GetAccountByName(ctx context.Context, role Role, name string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, role, name, secret, location, balance, created_at
		FROM accounts WHERE role = ? AND name = ?
	`, string(role), name)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*Account, error) {
	var acc Account
	var role string
	err := row.Scan(&acc.ID, &role, &acc.Name, &acc.Secret, &acc.Location, &acc.Balance, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	acc.Role = Role(role)
	return &acc, nil
}

// AddBalance increments an account's balance and returns the new value.
func (s *SQLiteStore) AddBalance(ctx context.Context, id string, amount int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + ? WHERE id = ?
	`, amount, id)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, ErrNotFound
	}

	var balance int64
	err = s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, id).Scan(&balance)
	return balance, err
}

func (s *SQLiteStore) SaveFileMetadata(ctx context.Context, meta *FileMeta) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (id, user_id, kiosk_id, filename, content_type, size, color, copies, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, meta.ID, meta.UserID, meta.KioskID, meta.Filename, meta.ContentType, meta.Size, meta.Color, meta.Copies, meta.CreatedAt)
	return err
}

func (s *SQLiteStore) GetFileMetadata(ctx context.Context, id string) (*FileMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, kiosk_id, filename, content_type, size, color, copies, created_at
		FROM files WHERE id = ?
	`, id)

	var meta FileMeta
	err := row.Scan(&meta.ID, &meta.UserID, &meta.KioskID, &meta.Filename, &meta.ContentType,
		&meta.Size, &meta.Color, &meta.Copies, &meta.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *SQLiteStore) ListFilesByUser(ctx context.Context, userID string) ([]*FileMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, kiosk_id, filename, content_type, size, color, copies, created_at
		FROM files WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*FileMeta
	for rows.Next() {
		var meta FileMeta
		if err := rows.Scan(&meta.ID, &meta.UserID, &meta.KioskID, &meta.Filename, &meta.ContentType,
			&meta.Size, &meta.Color, &meta.Copies, &meta.CreatedAt); err != nil {
			return nil, err
		}
		files = append(files, &meta)
	}
	return files, rows.Err()
}

func (s *SQLiteStore) DeleteFileMetadata(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN role = 'user' THEN 1 ELSE 0 END), 0) as users,
			COALESCE(SUM(CASE WHEN role = 'kiosk' THEN 1 ELSE 0 END), 0) as kiosks
		FROM accounts
	`)
	if err := row.Scan(&stats.TotalUsers, &stats.TotalKiosks); err != nil {
		return nil, err
	}

	row = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as total,
			COALESCE(SUM(size), 0) as total_bytes,
			COALESCE(MIN(created_at), '') as oldest,
			COALESCE(MAX(created_at), '') as newest
		FROM files
	`)

	var oldest, newest string
	if err := row.Scan(&stats.TotalFiles, &stats.TotalBytes, &oldest, &newest); err != nil {
		return nil, err
	}

	if oldest != "" {
		stats.OldestFile = parseStoredTime(oldest)
	}
	if newest != "" {
		stats.NewestFile = parseStoredTime(newest)
	}

	return stats, nil
}

// parseStoredTime handles the two datetime layouts SQLite hands back
// depending on how the value was written.
func parseStoredTime(v string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05-07:00", v)
	if err != nil {
		t, _ = time.Parse("2006-01-02T15:04:05Z", v)
	}
	return t
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

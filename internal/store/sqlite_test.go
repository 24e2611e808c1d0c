package store

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteStore_Accounts(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		acc := &Account{
			ID:        "acc-1",
			Role:      RoleUser,
			Name:      "alice",
			Secret:    "hunter2",
			CreatedAt: time.Now(),
		}

		if err := store.CreateAccount(ctx, acc); err != nil {
			t.Fatalf("failed to create: %v", err)
		}

		got, err := store.GetAccount(ctx, "acc-1")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.Name != "alice" || got.Role != RoleUser || got.Secret != "hunter2" {
			t.Errorf("got %+v, want %+v", got, acc)
		}
		if got.Balance != 0 {
			t.Errorf("expected zero starting balance, got %d", got.Balance)
		}
	})

	t.Run("GetByName", func(t *testing.T) {
		got, err := store.GetAccountByName(ctx, RoleUser, "alice")
		if err != nil {
			t.Fatalf("failed to get by name: %v", err)
		}
		if got.ID != "acc-1" {
			t.Errorf("got id %q, want acc-1", got.ID)
		}
	})

	t.Run("NameUniquePerRole", func(t *testing.T) {
		dup := &Account{
			ID:        "acc-2",
			Role:      RoleUser,
			Name:      "alice",
			Secret:    "other",
			CreatedAt: time.Now(),
		}
		if err := store.CreateAccount(ctx, dup); err != ErrNameTaken {
			t.Errorf("expected ErrNameTaken, got %v", err)
		}

		// Same name under the other role is allowed.
		kiosk := &Account{
			ID:        "acc-3",
			Role:      RoleKiosk,
			Name:      "alice",
			Secret:    "kioskpw",
			Location:  "library",
			CreatedAt: time.Now(),
		}
		if err := store.CreateAccount(ctx, kiosk); err != nil {
			t.Errorf("same name under a different role should be allowed, got %v", err)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		if _, err := store.GetAccount(ctx, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetAccountByName(ctx, RoleKiosk, "nobody"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("AddBalance", func(t *testing.T) {
		balance, err := store.AddBalance(ctx, "acc-1", 50)
		if err != nil {
			t.Fatalf("failed to add balance: %v", err)
		}
		if balance != 50 {
			t.Errorf("expected balance 50, got %d", balance)
		}

		balance, err = store.AddBalance(ctx, "acc-1", 25)
		if err != nil {
			t.Fatalf("failed to add balance: %v", err)
		}
		if balance != 75 {
			t.Errorf("expected balance 75, got %d", balance)
		}
	})

	t.Run("AddBalanceNotFound", func(t *testing.T) {
		if _, err := store.AddBalance(ctx, "nonexistent", 10); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Files(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		meta := &FileMeta{
			ID:          "file-1",
			UserID:      "acc-1",
			KioskID:     "KIOSK1",
			Filename:    "report.pdf",
			ContentType: "application/pdf",
			Size:        2048,
			Color:       "black_white",
			Copies:      1,
			CreatedAt:   time.Now(),
		}

		if err := store.SaveFileMetadata(ctx, meta); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		got, err := store.GetFileMetadata(ctx, "file-1")
		if err != nil {
			t.Fatalf("failed to get: %v", err)
		}
		if got.Filename != meta.Filename || got.Size != meta.Size || got.ContentType != meta.ContentType {
			t.Errorf("got %+v, want %+v", got, meta)
		}
		if got.KioskID != "KIOSK1" || got.Copies != 1 {
			t.Errorf("got %+v, want %+v", got, meta)
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		if _, err := store.GetFileMetadata(ctx, "nonexistent"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListByUserNewestFirst", func(t *testing.T) {
		older := &FileMeta{
			ID: "file-2", UserID: "acc-1", KioskID: "KIOSK1",
			Filename: "old.txt", ContentType: "text/plain", Size: 10,
			Color: "black_white", Copies: 1,
			CreatedAt: time.Now().Add(-1 * time.Hour),
		}
		other := &FileMeta{
			ID: "file-3", UserID: "acc-2", KioskID: "KIOSK1",
			Filename: "theirs.txt", ContentType: "text/plain", Size: 10,
			Color: "black_white", Copies: 1,
			CreatedAt: time.Now(),
		}
		store.SaveFileMetadata(ctx, older)
		store.SaveFileMetadata(ctx, other)

		list, err := store.ListFilesByUser(ctx, "acc-1")
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("expected 2 files for acc-1, got %d", len(list))
		}
		if list[0].ID != "file-1" || list[1].ID != "file-2" {
			t.Errorf("expected newest first [file-1 file-2], got [%s %s]", list[0].ID, list[1].ID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.DeleteFileMetadata(ctx, "file-2"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := store.GetFileMetadata(ctx, "file-2"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteFileMetadata(ctx, "file-2"); err != ErrNotFound {
			t.Errorf("expected ErrNotFound for double delete, got %v", err)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats, err := store.GetStats(ctx)
		if err != nil {
			t.Fatalf("failed to get stats: %v", err)
		}
		if stats.TotalFiles != 2 {
			t.Errorf("expected 2 files, got %d", stats.TotalFiles)
		}
		if stats.TotalBytes != 2058 {
			t.Errorf("expected 2058 bytes, got %d", stats.TotalBytes)
		}
	})
}

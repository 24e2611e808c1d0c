package files

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"printdrop/internal/store"
)

// Print preference bounds, matching what kiosk agents accept.
const (
	DefaultColorMode = "black_white"
	MaxCopies        = 10
)

// Service handles file operations.
type Service struct {
	storage Storage
	store   store.Store
}

// NewService creates a new file service.
func NewService(storage Storage, st store.Store) *Service {
	return &Service{
		storage: storage,
		store:   st,
	}
}

// UploadRequest describes an incoming file upload.
type UploadRequest struct {
	UserID      string
	KioskID     string
	Filename    string
	ContentType string
	Size        int64
	Color       string
	Copies      int
	Data        io.Reader
}

// Upload stores the file bytes and records metadata. If the metadata insert
// fails the stored blob is removed again so no unreachable bytes remain.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*store.FileMeta, error) {
	id := uuid.NewString()

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	actualSize, err := s.storage.Save(ctx, id, contentType, req.Data, req.Size)
	if err != nil {
		return nil, err
	}

	meta := &store.FileMeta{
		ID:          id,
		UserID:      req.UserID,
		KioskID:     req.KioskID,
		Filename:    req.Filename,
		ContentType: contentType,
		Size:        actualSize,
		Color:       normalizeColor(req.Color),
		Copies:      normalizeCopies(req.Copies),
		CreatedAt:   time.Now(),
	}

	if err := s.store.SaveFileMetadata(ctx, meta); err != nil {
		// Clean up the stored file if metadata save fails
		s.storage.Delete(ctx, id)
		return nil, err
	}

	return meta, nil
}

// Open retrieves a file's metadata and byte stream.
func (s *Service) Open(ctx context.Context, id string) (*store.FileMeta, io.ReadCloser, error) {
	meta, err := s.store.GetFileMetadata(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.storage.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return meta, reader, nil
}

// GetMetadata retrieves file metadata.
func (s *Service) GetMetadata(ctx context.Context, id string) (*store.FileMeta, error) {
	return s.store.GetFileMetadata(ctx, id)
}

// List returns the user's files, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*store.FileMeta, error) {
	return s.store.ListFilesByUser(ctx, userID)
}

// GetDirectURL returns the direct download URL for a file if the storage backend
// supports public access. Returns empty string if not available.
func (s *Service) GetDirectURL(id string) string {
	if provider, ok := s.storage.(PublicURLProvider); ok {
		return provider.GetPublicURL(id)
	}
	return ""
}

func normalizeColor(color string) string {
	if color != "color" {
		return DefaultColorMode
	}
	return color
}

func normalizeCopies(copies int) int {
	if copies < 1 {
		return 1
	}
	if copies > MaxCopies {
		return MaxCopies
	}
	return copies
}

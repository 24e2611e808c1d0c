package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"printdrop/internal/accounts"
	"printdrop/internal/files"
	"printdrop/internal/logging"
	"printdrop/internal/relay"
	"printdrop/internal/store"
	"printdrop/internal/wallet"
)

// MaxUploadSize is the maximum allowed file size (64MB).
const MaxUploadSize = 64 << 20

// Handler handles HTTP requests.
type Handler struct {
	accounts *accounts.Service
	files    *files.Service
	wallet   *wallet.Service
	hub      *relay.Hub
	registry *relay.Registry
	mux      *http.ServeMux
}

// NewHandler creates a new HTTP handler.
func NewHandler(acc *accounts.Service, fs *files.Service, w *wallet.Service, hub *relay.Hub, reg *relay.Registry) *Handler {
	h := &Handler{
		accounts: acc,
		files:    fs,
		wallet:   w,
		hub:      hub,
		registry: reg,
		mux:      http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /api/register", h.handleRegister)
	h.mux.HandleFunc("POST /api/login", h.handleLogin)
	h.mux.HandleFunc("POST /api/upload", h.handleUpload)
	h.mux.HandleFunc("GET /api/files/{userId}", h.handleListFiles)
	h.mux.HandleFunc("GET /api/file/{id}", h.handleDownload)
	h.mux.HandleFunc("POST /api/print", h.handlePrint)
	h.mux.HandleFunc("GET /api/wallet/{userId}", h.handleWalletBalance)
	h.mux.HandleFunc("POST /api/wallet/recharge", h.handleWalletRecharge)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.HTTP.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

// accountJSON is the client-facing account shape; the secret never leaves
// the server.
type accountJSON struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	CredentialName string `json:"credentialName"`
	Location       string `json:"location,omitempty"`
	Balance        int64  `json:"balance"`
}

func toAccountJSON(acc *store.Account) accountJSON {
	return accountJSON{
		ID:             acc.ID,
		Type:           string(acc.Role),
		CredentialName: acc.Name,
		Location:       acc.Location,
		Balance:        acc.Balance,
	}
}

// RegisterRequest is the body for account registration.
type RegisterRequest struct {
	Type           string `json:"type"`
	CredentialName string `json:"credentialName"`
	Secret         string `json:"secret"`
	Location       string `json:"location"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := store.Role(req.Type)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "type must be \"user\" or \"kiosk\"")
		return
	}
	if req.CredentialName == "" {
		writeError(w, http.StatusBadRequest, "missing credentialName")
		return
	}
	if req.Secret == "" {
		writeError(w, http.StatusBadRequest, "missing secret")
		return
	}

	acc, err := h.accounts.Register(r.Context(), role, req.CredentialName, req.Secret, req.Location)
	if errors.Is(err, accounts.ErrNameTaken) {
		writeError(w, http.StatusBadRequest, "credentialName already taken")
		return
	}
	if err != nil {
		logging.HTTP.Printf("register failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logging.Internal.Printf("registered %s %q (%s)", acc.Role, acc.Name, acc.ID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": acc.ID})
}

// LoginRequest is the body for login.
type LoginRequest struct {
	Type           string `json:"type"`
	CredentialName string `json:"credentialName"`
	Secret         string `json:"secret"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role := store.Role(req.Type)
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "type must be \"user\" or \"kiosk\"")
		return
	}
	if req.CredentialName == "" || req.Secret == "" {
		writeError(w, http.StatusBadRequest, "missing credentialName or secret")
		return
	}

	acc, err := h.accounts.Authenticate(r.Context(), role, req.CredentialName, req.Secret)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		logging.HTTP.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "account": toAccountJSON(acc)})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	userID := r.FormValue("userId")
	kioskID := r.FormValue("kioskId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}
	if kioskID == "" {
		writeError(w, http.StatusBadRequest, "missing kioskId")
		return
	}

	user, err := h.resolveUser(r, userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := h.accounts.Lookup(r.Context(), store.RoleKiosk, kioskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "kiosk not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	copies, _ := strconv.Atoi(r.FormValue("copies"))

	meta, err := h.files.Upload(r.Context(), files.UploadRequest{
		UserID:      user.ID,
		KioskID:     kioskID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Color:       r.FormValue("color"),
		Copies:      copies,
		Data:        file,
	})
	if err != nil {
		logging.HTTP.Printf("upload failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	url := h.fileURL(r, meta.ID)
	logging.Internal.Printf("file stored: %s (%s, %d bytes) for kiosk %s", meta.ID, meta.Filename, meta.Size, kioskID)

	// Notify the kiosk room. At-most-once: nobody joined means nobody hears.
	delivered := h.hub.Publish(kioskID, relay.NewFileReadyEvent(kioskID, relay.FileReadyPayload{
		FileID:      meta.ID,
		Filename:    meta.Filename,
		URL:         url,
		Size:        meta.Size,
		ContentType: meta.ContentType,
		UserID:      user.ID,
	}))
	if delivered == 0 {
		logging.Relay.Printf("fileReceived for kiosk %s dropped: room empty", kioskID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"fileId":   meta.ID,
		"filename": meta.Filename,
		"url":      url,
		"size":     meta.Size,
	})
}

// fileListEntry is one row in the file listing response.
type fileListEntry struct {
	FileID      string    `json:"fileId"`
	Filename    string    `json:"filename"`
	UploadDate  time.Time `json:"uploadDate"`
	Length      int64     `json:"length"`
	ContentType string    `json:"contentType"`
}

func (h *Handler) handleListFiles(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	if _, err := h.resolveUser(r, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metas, err := h.files.List(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	list := make([]fileListEntry, 0, len(metas))
	for _, m := range metas {
		list = append(list, fileListEntry{
			FileID:      m.ID,
			Filename:    m.Filename,
			UploadDate:  m.CreatedAt,
			Length:      m.Size,
			ContentType: m.ContentType,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": list})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	meta, reader, err := h.files.Open(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, files.ErrNotFound) || errors.Is(err, files.ErrInvalidID) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "download failed")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Filename))
	w.Header().Set("Content-Type", meta.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	if _, err := io.Copy(w, reader); err != nil {
		logging.HTTP.Printf("download stream failed for %s: %v", id, err)
	}
}

// PrintRequest is the body for a print command.
type PrintRequest struct {
	KioskID   string `json:"kioskId"`
	FileID    string `json:"fileId"`
	Color     string `json:"color"`
	Copies    int    `json:"copies"`
	PageRange string `json:"pageRange"`
	UserID    string `json:"userId"`
}

func (h *Handler) handlePrint(w http.ResponseWriter, r *http.Request) {
	var req PrintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.KioskID == "" {
		writeError(w, http.StatusBadRequest, "missing kioskId")
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, "missing fileId")
		return
	}

	meta, err := h.files.GetMetadata(r.Context(), req.FileID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Jobs go straight to the kiosk's registered connection, not its room:
	// the phone that uploaded the file sits in the same room and must not
	// receive the job. The registry lookup also distinguishes offline from
	// unknown.
	handle, ok := h.registry.Resolve(req.KioskID)
	if !ok {
		writeError(w, http.StatusGone, "kiosk offline")
		return
	}

	color := req.Color
	if color == "" {
		color = meta.Color
	}
	copies := req.Copies
	if copies <= 0 {
		copies = meta.Copies
	}

	job := relay.PrintJobPayload{
		JobID:       uuid.NewString(),
		FileID:      meta.ID,
		Filename:    meta.Filename,
		URL:         h.fileURL(r, meta.ID),
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Color:       color,
		Copies:      copies,
		PageRange:   req.PageRange,
		UserID:      req.UserID,
		Timestamp:   time.Now().UTC(),
	}

	handle.Deliver(relay.NewPrintEvent(req.KioskID, job))
	logging.Internal.Printf("print job %s sent to kiosk %s (file %s, %d copies)", job.JobID, req.KioskID, job.FileID, job.Copies)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "job": job})
}

func (h *Handler) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	balance, err := h.wallet.Balance(r.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "balance": balance})
}

// RechargeRequest is the body for a wallet top-up.
type RechargeRequest struct {
	UserID string `json:"userId"`
	Amount int64  `json:"amount"`
}

func (h *Handler) handleWalletRecharge(w http.ResponseWriter, r *http.Request) {
	var req RechargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	balance, err := h.wallet.Recharge(r.Context(), req.UserID, req.Amount)
	if errors.Is(err, wallet.ErrInvalidAmount) {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "newBalance": balance})
}

// resolveUser fetches the account and checks it is a user, not a kiosk.
func (h *Handler) resolveUser(r *http.Request, userID string) (*store.Account, error) {
	acc, err := h.accounts.Get(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	if acc.Role != store.RoleUser {
		return nil, store.ErrNotFound
	}
	return acc, nil
}

// fileURL builds the download URL a kiosk uses to fetch the file. Storage
// backends with a public URL (object store behind a CDN) take precedence
// over the server's own download endpoint.
func (h *Handler) fileURL(r *http.Request, id string) string {
	if direct := h.files.GetDirectURL(id); direct != "" {
		return direct
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/file/%s", scheme, r.Host, id)
}

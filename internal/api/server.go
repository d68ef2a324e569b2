// Package api provides the HTTP server and handlers. It is the stand-in for
// the browser UI: listing, upload and mkdir map one-to-one onto the drive
// core, and an SSE stream tells the UI when to refresh.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/devyuvraj7/telegram-drive/internal/codec"
	"github.com/devyuvraj7/telegram-drive/internal/drive"
	"github.com/devyuvraj7/telegram-drive/internal/events"
	"github.com/devyuvraj7/telegram-drive/internal/logging"
	"github.com/devyuvraj7/telegram-drive/internal/metrics"
	"github.com/devyuvraj7/telegram-drive/internal/record"
	"github.com/devyuvraj7/telegram-drive/internal/transport"
)

// Server is the HTTP server.
type Server struct {
	reader        *drive.Reader
	coordinator   *drive.Coordinator
	broadcaster   *events.Broadcaster
	maxUploadSize int64
}

// NewServer creates a new server.
func NewServer(reader *drive.Reader, coordinator *drive.Coordinator, broadcaster *events.Broadcaster, maxUploadSize int64) *Server {
	return &Server{
		reader:        reader,
		coordinator:   coordinator,
		broadcaster:   broadcaster,
		maxUploadSize: maxUploadSize,
	}
}

// Handler returns the routed HTTP handler with logging and metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/v1/list", s.route("/api/v1/list", http.MethodGet, s.handleList))
	mux.Handle("/api/v1/upload", s.route("/api/v1/upload", http.MethodPost, s.handleUpload))
	mux.Handle("/api/v1/mkdir", s.route("/api/v1/mkdir", http.MethodPost, s.handleMkdir))
	mux.Handle("/api/v1/events", s.route("/api/v1/events", http.MethodGet, s.handleEvents))
	mux.Handle("/health", s.route("/health", http.MethodGet, s.handleHealth))
	return mux
}

func (s *Server) route(path, method string, handler http.HandlerFunc) http.Handler {
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		start := time.Now()
		handler(w, r)
		logging.Debug("request completed",
			zap.String("method", r.Method),
			zap.String("path", path),
			zap.Duration("duration", time.Since(start)))
	})
	return metrics.InstrumentHandler(path, wrapped)
}

// ListResponse is returned by GET /api/v1/list.
type ListResponse struct {
	FolderID string     `json:"folder_id,omitempty"`
	Items    []ListItem `json:"items"`
}

// ListItem is one record in a listing, tagged by kind.
type ListItem struct {
	Kind       string `json:"kind"` // "file" or "folder"
	ID         string `json:"id"`
	Name       string `json:"name"`
	ParentID   string `json:"parent_id,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	Class      string `json:"class,omitempty"`
	URL        string `json:"url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	Size       int64  `json:"size,omitempty"`
}

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	folderID := r.URL.Query().Get("folder")

	records, err := s.reader.List(r.Context(), folderID)
	if err != nil {
		logging.Error("list failed", zap.String("folder_id", folderID), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	resp := ListResponse{FolderID: folderID, Items: make([]ListItem, 0, len(records))}
	for _, rec := range records {
		resp.Items = append(resp.Items, toListItem(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toListItem(rec record.Record) ListItem {
	switch v := rec.(type) {
	case *record.File:
		return ListItem{
			Kind:       "file",
			ID:         v.ID,
			Name:       v.Name,
			ParentID:   v.ParentID,
			MimeType:   v.MimeType,
			Class:      string(v.Class()),
			URL:        v.URL,
			PreviewURL: v.PreviewURL,
			Size:       v.Size,
		}
	case *record.Folder:
		return ListItem{
			Kind:     "folder",
			ID:       v.ID,
			Name:     v.Name,
			ParentID: v.ParentID,
		}
	default:
		// Unreachable while record stays a two-variant type.
		return ListItem{Kind: "unknown", ID: rec.RecordID(), Name: rec.DisplayName()}
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
		return
	}
	parentID := r.FormValue("parent_id")

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer f.Close()

	file, err := s.coordinator.CreateFile(r.Context(), f, header.Size, header.Filename, parentID, nil)
	if err != nil {
		logging.Error("upload failed", zap.String("name", header.Filename), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.broadcaster.Publish(events.Event{
		Type:     events.EventFileCreated,
		RecordID: file.ID,
		Name:     file.Name,
		ParentID: file.ParentID,
	})
	writeJSON(w, http.StatusCreated, toListItem(file))
}

// MkdirRequest is the body for POST /api/v1/mkdir.
type MkdirRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

func (s *Server) handleMkdir(w http.ResponseWriter, r *http.Request) {
	var req MkdirRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	folder, err := s.coordinator.CreateFolder(r.Context(), req.Name, req.ParentID)
	if err != nil {
		logging.Error("mkdir failed", zap.String("name", req.Name), zap.Error(err))
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.broadcaster.Publish(events.Event{
		Type:     events.EventFolderCreated,
		RecordID: folder.ID,
		Name:     folder.Name,
		ParentID: folder.ParentID,
	})
	writeJSON(w, http.StatusCreated, toListItem(folder))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-ch:
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps drive failures onto HTTP status codes, keeping the
// transport classification visible to API consumers.
func statusFor(err error) int {
	if errors.Is(err, codec.ErrInvalidFolderName) {
		return http.StatusBadRequest
	}
	var te *transport.Error
	if errors.As(err, &te) {
		switch te.Kind {
		case transport.KindQuota:
			return http.StatusTooManyRequests
		case transport.KindRejected:
			return http.StatusBadRequest
		default:
			return http.StatusBadGateway
		}
	}
	var fe *drive.FetchError
	if errors.As(err, &fe) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: status})
}

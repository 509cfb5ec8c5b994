package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contractintel/contract-intel/constants"
	"github.com/contractintel/contract-intel/internal/entity"
	"github.com/contractintel/contract-intel/internal/pipeline"
	"github.com/contractintel/contract-intel/internal/store"
)

// statusResponse is the polling payload for in-flight contracts.
type statusResponse struct {
	ID       uuid.UUID                `json:"id"`
	Filename string                   `json:"filename"`
	Status   constants.ContractStatus `json:"status"`
	Progress int                      `json:"progress"`
	Score    *int                     `json:"score,omitempty"`
	Gaps     []string                 `json:"gaps,omitempty"`
	Error    *string                  `json:"error,omitempty"`
}

func toStatusResponse(c *entity.Contract) statusResponse {
	return statusResponse{
		ID:       c.ID,
		Filename: c.Filename,
		Status:   c.Status,
		Progress: c.Progress,
		Score:    c.Score,
		Gaps:     c.Gaps,
		Error:    c.Error,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// upload accepts a multipart document, persists a PENDING contract, and
// enqueues processing. The response returns immediately with the contract ID
// for status polling.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer func() { _ = file.Close() }()

	ext := constants.NormalizeExt(filepath.Ext(header.Filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q (allowed: pdf, txt)", ext))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}
	if len(data) == 0 {
		s.respondError(w, http.StatusBadRequest, "empty file")
		return
	}

	now := time.Now().UTC()
	c := &entity.Contract{
		ID:         uuid.New(),
		Filename:   header.Filename,
		FileSize:   len(data),
		Status:     constants.StatusPending,
		Progress:   constants.StageProgress[constants.StatusPending],
		UploadedAt: now,
		UpdatedAt:  now,
	}
	if err := s.store.Save(r.Context(), c); err != nil {
		s.log(r).Error("http.upload.save_error", "error", err)
		s.respondError(w, http.StatusInternalServerError, "persist contract")
		return
	}

	if err := s.queue.Enqueue(r.Context(), pipeline.Job{
		ContractID:  c.ID,
		Filename:    c.Filename,
		Data:        data,
		SubmittedAt: now,
	}); err != nil {
		s.log(r).Error("http.upload.enqueue_error", "error", err)
		s.respondError(w, http.StatusInternalServerError, "enqueue contract")
		return
	}

	s.respondJSON(w, http.StatusAccepted, toStatusResponse(c))
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	id, ok := s.contractID(w, r)
	if !ok {
		return
	}
	c, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "contract not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "load contract")
		return
	}
	s.respondJSON(w, http.StatusOK, toStatusResponse(c))
}

// result returns the full record. Before COMPLETED the caller is pointed at
// the status endpoint instead.
func (s *Server) result(w http.ResponseWriter, r *http.Request) {
	id, ok := s.contractID(w, r)
	if !ok {
		return
	}
	c, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "contract not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "load contract")
		return
	}
	if c.Status != constants.StatusCompleted {
		s.respondJSON(w, http.StatusConflict, map[string]any{
			"error":  "contract not completed",
			"status": c.Status,
		})
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

// list returns contracts newest-first with optional ?status= filter and
// ?limit=/?offset= pagination.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	contracts, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "list contracts")
		return
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		want := constants.ContractStatus(strings.ToUpper(raw))
		filtered := contracts[:0]
		for _, c := range contracts {
			if c.Status == want {
				filtered = append(filtered, c)
			}
		}
		contracts = filtered
	}

	total := len(contracts)
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := contracts[offset:end]

	items := make([]statusResponse, len(page))
	for i, c := range page {
		items[i] = toStatusResponse(c)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"contracts": items,
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := s.contractID(w, r)
	if !ok {
		return
	}
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "contract not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "delete contract")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	id, ok := s.contractID(w, r)
	if !ok {
		return
	}
	c, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "contract not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "load contract")
		return
	}

	b, err := s.exporter.ContractXLSX(c)
	if err != nil {
		s.log(r).Error("http.export_error", "contract_id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, "export contract")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "contract-"+id.String()+".xlsx"))
	_, _ = w.Write(b)
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

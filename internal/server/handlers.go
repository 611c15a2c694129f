package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jalade/pdf-insight/internal/common"
	"github.com/jalade/pdf-insight/internal/entity"
)

const maxUpsertBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

// writeErr maps the error taxonomy onto HTTP statuses.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrInvalidReference):
		s.writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.catalog.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("list documents", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []entity.Document{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(docs),
		"documents": docs,
	})
}

type detailResponse struct {
	Document *entity.Document  `json:"document"`
	Images   []entity.ImageRef `json:"images,omitempty"`
	Text     *entity.TextRef   `json:"text,omitempty"`
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	doc, err := s.catalog.GetDocument(r.Context(), filename)
	if err != nil {
		s.logger.Error("get document", "filename", filename, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load document")
		return
	}
	if doc == nil {
		s.writeErr(w, fmt.Errorf("no document named %q: %w", filename, common.ErrNotFound))
		return
	}

	resp := detailResponse{Document: doc}
	if s.refs != nil {
		images, err := s.refs.GetImagesByDocument(r.Context(), doc.ID)
		if err != nil {
			s.logger.Error("get image refs", "filename", filename, "err", err)
			s.writeError(w, http.StatusInternalServerError, "failed to load image references")
			return
		}
		text, err := s.refs.GetTextByDocument(r.Context(), doc.ID)
		if err != nil {
			s.logger.Error("get text ref", "filename", filename, "err", err)
			s.writeError(w, http.StatusInternalServerError, "failed to load text reference")
			return
		}
		resp.Images = images
		resp.Text = text
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpsertBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if err := ValidateJSONAgainstSchema(s.schema, body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var meta entity.Metadata
	if err := json.Unmarshal(body, &meta); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed metadata payload")
		return
	}

	id, err := s.catalog.UpsertDocument(r.Context(), filename, meta)
	if err != nil {
		s.logger.Error("upsert document", "filename", filename, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to store document")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"filename": filename,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	deleted, err := s.proc.Delete(r.Context(), filename)
	if err != nil {
		s.logger.Error("delete document", "filename", filename, "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	if !deleted {
		s.writeErr(w, fmt.Errorf("no document named %q: %w", filename, common.ErrNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"deleted": filename})
}

type statsResponse struct {
	Documents        int `json:"documents"`
	TotalPages       int `json:"total_pages"`
	TotalWords       int `json:"total_words"`
	TotalImages      int `json:"total_images"`
	TotalAttachments int `json:"total_attachments"`
	Embedded         int `json:"embedded"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	docs, err := s.catalog.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("stats query", "err", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	var resp statsResponse
	resp.Documents = len(docs)
	for _, d := range docs {
		resp.TotalPages += d.NumPages
		resp.TotalWords += d.TotalWords
		resp.TotalImages += d.TotalImages
		resp.TotalAttachments += d.TotalAttachments
		if d.EmbeddingsCount != nil && *d.EmbeddingsCount > 0 {
			resp.Embedded++
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	stats, err := s.proc.ProcessPending(r.Context())
	if err != nil {
		s.logger.Error("batch run", "err", err)
		s.writeError(w, http.StatusInternalServerError, "batch run failed")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		s.writeError(w, http.StatusServiceUnavailable, "semantic search is not enabled")
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := s.searcher.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("search", "query", query, "err", err)
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportCatalogXLSX(r.Context())
	if err != nil {
		s.logger.Error("export", "err", err)
		s.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	name := fmt.Sprintf("pdf-catalog-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write export", "err", err)
	}
}

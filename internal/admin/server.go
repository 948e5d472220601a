// Package admin serves the merchant-facing discount CRUD API.
//
// This is the thin collaborator surface around the decision core: plain
// JSON endpoints over the definition store, with configuration blobs
// schema-checked on the way in so the evaluation path only ever sees
// blobs a merchant deliberately saved. Session/auth plumbing and static
// assets live outside this repository.
package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/merchkit/freegift/internal/confschema"
	"github.com/merchkit/freegift/internal/store"
)

// Server exposes the discount definition API.
type Server struct {
	store  *store.Store
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewServer creates a Server over the given store. logger may be nil, in
// which case slog.Default() is used.
func NewServer(st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{store: st, logger: logger, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /api/discounts", s.handleCreate)
	s.mux.HandleFunc("GET /api/discounts", s.handleList)
	s.mux.HandleFunc("GET /api/discounts/{id}", s.handleGet)
	s.mux.HandleFunc("PUT /api/discounts/{id}", s.handleUpdate)
	s.mux.HandleFunc("DELETE /api/discounts/{id}", s.handleDelete)
	s.mux.HandleFunc("POST /api/metafields", s.handleSetMetafield)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error  string                  `json:"error"`
	Fields []confschema.FieldError `json:"fields,omitempty"`
}

type warningResponse struct {
	Discount store.Definition `json:"discount"`
	Warnings []string         `json:"warnings,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var def store.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if !s.validateDefinition(w, def) {
		return
	}

	created, err := s.store.CreateDefinition(r.Context(), def)
	if err != nil {
		s.logger.Error("create discount failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "create discount failed", nil)
		return
	}
	s.writeJSON(w, http.StatusCreated, warningResponse{
		Discount: created,
		Warnings: configWarnings(created.Configuration),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	defs, err := s.store.ListDefinitions(r.Context())
	if err != nil {
		s.logger.Error("list discounts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "list discounts failed", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"discounts": defs})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	def, err := s.store.GetDefinition(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "discount not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("get discount failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "get discount failed", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"discount": def})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var def store.Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	def.ID = r.PathValue("id")
	if !s.validateDefinition(w, def) {
		return
	}

	updated, err := s.store.UpdateDefinition(r.Context(), def)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "discount not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("update discount failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "update discount failed", nil)
		return
	}
	s.writeJSON(w, http.StatusOK, warningResponse{
		Discount: updated,
		Warnings: configWarnings(updated.Configuration),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteDefinition(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "discount not found", nil)
		return
	}
	if err != nil {
		s.logger.Error("delete discount failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "delete discount failed", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type metafieldRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleSetMetafield(w http.ResponseWriter, r *http.Request) {
	var req metafieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" {
		s.writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := s.store.SetMetadata(r.Context(), req.Key, req.Value); err != nil {
		s.logger.Error("set metafield failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "set metafield failed", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateDefinition schema-checks the configuration blob, writing a 422
// with field errors on violation. Returns false when the request was
// rejected.
func (s *Server) validateDefinition(w http.ResponseWriter, def store.Definition) bool {
	if def.Title == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "title is required", nil)
		return false
	}
	if err := confschema.Validate([]byte(def.Configuration)); err != nil {
		var verr *confschema.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusUnprocessableEntity, "invalid configuration", verr.Fields)
			return false
		}
		s.logger.Error("configuration validation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "configuration validation failed", nil)
		return false
	}
	return true
}

// configWarnings surfaces authoring smells that are legal but almost
// certainly unintended.
func configWarnings(raw string) []string {
	var cfg struct {
		OfferedProductID string `json:"offeredProductId"`
		FreeProductID    string `json:"freeProductId"`
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil
	}
	if !confschema.DistinctIDs(cfg.OfferedProductID, cfg.FreeProductID) {
		return []string{"offeredProductId and freeProductId are the same variant"}
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, fields []confschema.FieldError) {
	s.writeJSON(w, status, errorResponse{Error: msg, Fields: fields})
}

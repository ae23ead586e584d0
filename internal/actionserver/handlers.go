package actionserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kingrea/ecotrack/internal/domain"
)

const msgServerError = "A server error occurred."

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := s.uptimeSeconds()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        string(s.Status()),
		UptimeSeconds: uptime,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List(r.Context())
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	patch, ok := s.readPayload(w, r, false)
	if !ok {
		return
	}
	created, err := s.store.Create(r.Context(), inputOf(patch))
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleReplace is PUT: every writable field must be present.
func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	patch, ok := s.readPayload(w, r, false)
	if !ok {
		return
	}
	replaced, err := s.store.Replace(r.Context(), id, inputOf(patch))
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, replaced)
}

// handlePatch merges the supplied fields into the stored record.
func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	patch, ok := s.readPayload(w, r, true)
	if !ok {
		return
	}
	updated, err := s.store.Patch(r.Context(), id, patch)
	if err != nil {
		s.storeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readPayload enforces the body limit and decodes the action fields. On
// failure it has already written the response.
func (s *Server) readPayload(w http.ResponseWriter, r *http.Request, partial bool) (domain.ActionPatch, bool) {
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body exceeds limit.")
			return domain.ActionPatch{}, false
		}
		writeDetail(w, http.StatusBadRequest, "Unable to read request body.")
		return domain.ActionPatch{}, false
	}
	patch, err := decodePayload(body, partial)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.Is(err, errMalformed):
			writeDetail(w, http.StatusBadRequest, domain.MsgMalformedJSON)
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, verr.Fields())
		default:
			writeDetail(w, http.StatusBadRequest, err.Error())
		}
		return domain.ActionPatch{}, false
	}
	return patch, true
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, domain.MsgNotFound)
		return
	}
	s.logger.Error("store operation failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", RequestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeDetail(w, http.StatusInternalServerError, msgServerError)
}

// pathID parses the {id} segment. Anything other than a non-negative
// integer is a 404, matching an <int:...> route that never matched.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	for _, c := range raw {
		if c < '0' || c > '9' {
			writeDetail(w, http.StatusNotFound, domain.MsgNotFound)
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, domain.MsgNotFound)
		return 0, false
	}
	return id, true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

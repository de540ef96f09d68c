package bank

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vicky05092005/statatics-quiz/internal/quiz"
	"github.com/vicky05092005/statatics-quiz/internal/remotestore"
	httperrors "github.com/vicky05092005/statatics-quiz/pkg/http/errors"
)

// Handlers exposes the admin question bank endpoints.
type Handlers struct {
	mgr *Manager
}

// NewHandlers wires the bank endpoints.
func NewHandlers(mgr *Manager) *Handlers {
	return &Handlers{mgr: mgr}
}

// HandleList returns the current bank, loading it if still empty.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.mgr.Count() == 0 {
		if !h.mgr.LoadRemote(r.Context()) {
			h.mgr.LoadLocal()
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": h.mgr.Snapshot()})
}

// HandleAdd validates and appends a question.
func (h *Handlers) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var q quiz.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed JSON body")
		return
	}
	added, err := h.mgr.Add(r.Context(), q)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"question": added})
}

// HandleUpdate replaces a question by ID.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var q quiz.Question
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed JSON body")
		return
	}
	err := h.mgr.Update(r.Context(), r.PathValue("id"), q)
	switch {
	case errors.Is(err, ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Unknown question")
		return
	case err != nil:
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"updated": true})
}

// HandleDelete removes a question by ID.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	err := h.mgr.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, ErrNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "Unknown question")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// HandlePush replaces the whole remote collection with the in-memory bank.
// Partial failures surface the progress made; see ReplaceAllRemote.
func (h *Handlers) HandlePush(w http.ResponseWriter, r *http.Request) {
	err := h.mgr.ReplaceAllRemote(r.Context())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"pushed": h.mgr.Count()})
	case errors.Is(err, remotestore.ErrUnavailable):
		httperrors.RespondBadGateway(w, httperrors.ErrCodeRemoteUnavailable, "Remote store not configured")
	default:
		httperrors.RespondBadGateway(w, httperrors.ErrCodeRemoteFailed, err.Error())
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

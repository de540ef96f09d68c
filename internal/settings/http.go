package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/vicky05092005/statatics-quiz/pkg/http/errors"
)

// Handlers exposes the admin settings endpoints.
type Handlers struct {
	mgr *Manager
}

// NewHandlers wires the settings endpoints.
func NewHandlers(mgr *Manager) *Handlers {
	return &Handlers{mgr: mgr}
}

// HandleGet refreshes settings from the remote store and returns the current
// values. A failed refresh still answers with the last-known values.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	remoteOK := h.mgr.Load(r.Context())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"settings":  h.mgr.Current(),
		"remote_ok": remoteOK,
	})
}

// HandlePut validates and saves new settings. The in-memory values are
// updated even when the remote write fails; the failure is reported so the
// admin UI can surface it.
func (h *Handlers) HandlePut(w http.ResponseWriter, r *http.Request) {
	var req Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed JSON body")
		return
	}
	err := h.mgr.Save(r.Context(), req.QuestionCount, req.DurationMinutes)
	if errors.Is(err, ErrOutOfRange) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
		return
	}
	if err != nil {
		httperrors.RespondBadGateway(w, httperrors.ErrCodeRemoteFailed, "Saved locally; remote write failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"settings": h.mgr.Current()})
}

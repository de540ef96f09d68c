package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/vicky05092005/statatics-quiz/pkg/http/errors"
)

type loginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// HandleLogin exchanges the admin credential pair for a session token.
func (a *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Malformed JSON body")
		return
	}
	token, err := a.Login(req.ID, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid admin credentials")
		return
	}
	if err != nil {
		httperrors.RespondInternalError(w, "Could not issue token")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"token": token})
}

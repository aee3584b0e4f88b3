package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/httpjson"
)

type profileRequest struct {
	Email    string                  `json:"email"`
	Name     string                  `json:"name"`
	Profiles domain.ChannelSelection `json:"profiles"`
}

// handleGetProfile renvoie l'utilisateur authentifié.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}
	httpjson.Write(w, http.StatusOK, user)
}

// handlePutProfile enregistre les coordonnées de contact par canal.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "invalid json")
		return
	}
	if req.Email == "" {
		req.Email = user.Email
	}
	if req.Name == "" {
		req.Name = user.Name
	}

	updated, err := s.users.SaveProfile(r.Context(), user.UUID, req.Email, req.Name, req.Profiles)
	if err != nil {
		writeServiceError(w, r, "save-profile", err)
		return
	}
	httpjson.Write(w, http.StatusOK, updated)
}

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/httpjson"
)

type DispatchesHandler struct {
	dispatches *app.DispatchService
}

func NewDispatchesHandler(dispatches *app.DispatchService) *DispatchesHandler {
	return &DispatchesHandler{dispatches: dispatches}
}

func (h *DispatchesHandler) Routes(r chi.Router) {
	r.Route("/dispatches", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Post("/claim", h.claim)
		r.Post("/{id}/state", h.updateState)
	})
}

func (h *DispatchesHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	state := domain.DispatchState(r.URL.Query().Get("state"))

	dispatches, err := h.dispatches.List(r.Context(), state, limit)
	if err != nil {
		writeServiceError(w, r, "list-dispatches", err)
		return
	}
	httpjson.Write(w, http.StatusOK, dispatches)
}

func (h *DispatchesHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.dispatches.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get-dispatch", err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

// claim remet le plus ancien dispatch en attente au worker appelant.
// 204 signifie que la file est vide.
func (h *DispatchesHandler) claim(w http.ResponseWriter, r *http.Request) {
	d, err := h.dispatches.Claim(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeServiceError(w, r, "claim-dispatch", err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

type dispatchStateRequest struct {
	State        domain.DispatchState `json:"state"`
	ErrorCode    string               `json:"errorCode,omitempty"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
}

func (h *DispatchesHandler) updateState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dispatchStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "invalid json")
		return
	}
	if req.State == "" {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "missing state")
		return
	}

	d, err := h.dispatches.Complete(r.Context(), id, req.State, req.ErrorCode, req.ErrorMessage)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDispatchTransition) {
			httpjson.WriteFailure(w, http.StatusConflict, app.KindInvalidInput, err.Error())
			return
		}
		writeServiceError(w, r, "dispatch-state", err)
		return
	}
	httpjson.Write(w, http.StatusOK, d)
}

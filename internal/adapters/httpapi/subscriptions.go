package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/httpjson"
)

type SubscriptionsHandler struct {
	subs *app.SubscriptionService
}

func NewSubscriptionsHandler(subs *app.SubscriptionService) *SubscriptionsHandler {
	return &SubscriptionsHandler{subs: subs}
}

func (h *SubscriptionsHandler) Routes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Patch("/{id}/pause", h.pause)
		r.Patch("/{id}/play", h.play)
		r.Delete("/{id}", h.unsubscribe)
		r.Put("/{id}/notifications", h.saveNotifications)
	})
}

type createSubscriptionRequest struct {
	Stock             app.StockSummary `json:"stock"`
	Interval          int              `json:"interval"`
	FirstNotification time.Time        `json:"firstNotification"`
}

func (h *SubscriptionsHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}

	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "invalid json")
		return
	}
	if req.Stock.Symbol == "" || req.Interval == 0 || req.FirstNotification.IsZero() {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "All fields are required.")
		return
	}

	view, err := h.subs.Subscribe(r.Context(), user, req.Stock, req.Interval, req.FirstNotification)
	if err != nil {
		writeServiceError(w, r, "subscribe", err)
		return
	}
	httpjson.Write(w, http.StatusCreated, subscriptionResponse{
		Message:      "You're now subscribed to " + view.Name + ".",
		Subscription: view,
	})
}

type subscriptionResponse struct {
	Message      string               `json:"message"`
	Subscription app.SubscriptionView `json:"subscription"`
}

type pausePlayRequest struct {
	ResumeDate time.Time `json:"resumeDate,omitempty"`
	StartDate  time.Time `json:"startDate,omitempty"`
	Interval   int       `json:"interval"`
}

func (h *SubscriptionsHandler) pause(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")

	var req pausePlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "invalid json")
		return
	}
	if req.ResumeDate.IsZero() || req.Interval == 0 {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "All fields are required.")
		return
	}

	view, err := h.subs.Pause(r.Context(), id, user.UUID, req.ResumeDate, req.Interval)
	if err != nil {
		writeServiceError(w, r, "pause", err)
		return
	}
	httpjson.Write(w, http.StatusOK, subscriptionResponse{
		Message:      "Subscription paused successfully.",
		Subscription: view,
	})
}

func (h *SubscriptionsHandler) play(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")

	var req pausePlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "invalid json")
		return
	}
	if req.StartDate.IsZero() || req.Interval == 0 {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "All fields are required.")
		return
	}

	view, err := h.subs.Play(r.Context(), id, user.UUID, req.StartDate, req.Interval)
	if err != nil {
		writeServiceError(w, r, "play", err)
		return
	}
	httpjson.Write(w, http.StatusOK, subscriptionResponse{
		Message:      "Subscription resumed successfully.",
		Subscription: view,
	})
}

func (h *SubscriptionsHandler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")

	agg, err := h.subs.Unsubscribe(r.Context(), id, user.UUID)
	if err != nil {
		writeServiceError(w, r, "unsubscribe", err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{
		"message": "You've been unsubscribed from " + agg.Name + ".",
	})
}

type saveNotificationsRequest struct {
	Notifications domain.ChannelSelection `json:"notifications"`
}

func (h *SubscriptionsHandler) saveNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}
	id := chi.URLParam(r, "id")

	var req saveNotificationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "invalid json")
		return
	}
	if req.Notifications == nil {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "All fields are required.")
		return
	}

	view, err := h.subs.SaveNotifications(r.Context(), id, user.UUID, req.Notifications)
	if err != nil {
		writeServiceError(w, r, "save-notifications", err)
		return
	}
	httpjson.Write(w, http.StatusOK, subscriptionResponse{
		Message:      "Notification preferences saved successfully.",
		Subscription: view,
	})
}

func (h *SubscriptionsHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
		return
	}

	views, err := h.subs.ListForSubscriber(r.Context(), user.UUID)
	if err != nil {
		writeServiceError(w, r, "list-subscriptions", err)
		return
	}
	httpjson.Write(w, http.StatusOK, views)
}

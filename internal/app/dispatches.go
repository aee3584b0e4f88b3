package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/xid"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

// DispatchService manages the outbox of due notification checks. External
// delivery workers claim dispatches and report a terminal state; nothing in
// this process sends or retries a notification.
type DispatchService struct {
	repo ports.DispatchRepository
	bus  ports.EventBus
}

func NewDispatchService(repo ports.DispatchRepository, bus ports.EventBus) *DispatchService {
	return &DispatchService{repo: repo, bus: bus}
}

type DispatchDTO struct {
	ID             string                  `json:"id"`
	SubscriptionID string                  `json:"subscriptionId"`
	Symbol         string                  `json:"symbol"`
	SubscriberID   string                  `json:"subscriberId"`
	Channels       domain.ChannelSelection `json:"channels"`
	DueAt          time.Time               `json:"dueAt"`
	State          domain.DispatchState    `json:"state"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
	ErrorCode      string                  `json:"errorCode,omitempty"`
	Error          string                  `json:"error,omitempty"`
}

func toDispatchDTO(d domain.Dispatch) DispatchDTO {
	return DispatchDTO{
		ID:             d.ID,
		SubscriptionID: d.SubscriptionID,
		Symbol:         d.Symbol,
		SubscriberID:   d.SubscriberID,
		Channels:       d.Channels,
		DueAt:          d.DueAt,
		State:          d.State,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		ErrorCode:      d.ErrorCode,
		Error:          d.ErrorMessage,
	}
}

// Enqueue records a due check as a queued dispatch.
func (s *DispatchService) Enqueue(ctx context.Context, due domain.DueCheck) (DispatchDTO, error) {
	now := time.Now().UTC()
	d := domain.Dispatch{
		ID:             xid.New().String(),
		SubscriptionID: due.SubscriptionID,
		Symbol:         due.Symbol,
		SubscriberID:   due.SubscriberID,
		Channels:       due.Notifications,
		DueAt:          due.NextCheckAt,
		State:          domain.DispatchQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := s.repo.Create(ctx, d)
	if err != nil {
		return DispatchDTO{}, err
	}
	s.publish("dispatch.queued", created)
	return toDispatchDTO(created), nil
}

func (s *DispatchService) Get(ctx context.Context, id string) (DispatchDTO, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return DispatchDTO{}, err
	}
	return toDispatchDTO(d), nil
}

func (s *DispatchService) List(ctx context.Context, state domain.DispatchState, limit int) ([]DispatchDTO, error) {
	ds, err := s.repo.List(ctx, state, limit)
	if err != nil {
		return nil, err
	}
	out := make([]DispatchDTO, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDispatchDTO(d))
	}
	return out, nil
}

// Claim hands the oldest queued dispatch to a delivery worker.
func (s *DispatchService) Claim(ctx context.Context) (DispatchDTO, error) {
	d, err := s.repo.ClaimNextQueued(ctx)
	if err != nil {
		return DispatchDTO{}, err
	}
	s.publish("dispatch.claimed", d)
	return toDispatchDTO(d), nil
}

// Complete records the delivery worker's terminal report for a claimed
// dispatch. Allowed states: delivered, failed.
func (s *DispatchService) Complete(ctx context.Context, id string, state domain.DispatchState, errCode, errMessage string) (DispatchDTO, error) {
	if !domain.CanTransitionDispatch(domain.DispatchClaimed, state) || !state.IsTerminal() {
		return DispatchDTO{}, domain.ErrInvalidDispatchTransition
	}
	// La transition conditionnelle d'abord. Les champs d'erreur ne sont
	// écrits qu'une fois le passage en failed acquis, sinon un refus
	// laisserait un dispatch encore queued annoté d'une erreur.
	updated, err := s.repo.UpdateState(ctx, id, domain.DispatchClaimed, state)
	if err != nil {
		return DispatchDTO{}, err
	}
	if state == domain.DispatchFailed && errCode != "" {
		updated, err = s.repo.UpdateError(ctx, id, errCode, errMessage)
		if err != nil {
			return DispatchDTO{}, err
		}
	}
	s.publish("dispatch."+string(state), updated)
	return toDispatchDTO(updated), nil
}

// CancelFor drops the queued dispatches of an unsubscribed pair.
func (s *DispatchService) CancelFor(ctx context.Context, subscriptionID, subscriberID string) (int, error) {
	return s.repo.CancelQueuedFor(ctx, subscriptionID, subscriberID)
}

func (s *DispatchService) publish(topic string, d domain.Dispatch) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(toDispatchDTO(d))
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}

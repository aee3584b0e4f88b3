package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

type SubscriptionService struct {
	repo ports.SubscriptionRepository
	bus  ports.EventBus
}

func NewSubscriptionService(repo ports.SubscriptionRepository, bus ports.EventBus) *SubscriptionService {
	return &SubscriptionService{repo: repo, bus: bus}
}

// StockSummary is the immutable descriptive metadata captured when the
// first subscriber creates an aggregate (typically straight from a symbol
// search result).
type StockSummary struct {
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	InstrumentType string `json:"instrumentType"`
	Region         string `json:"region"`
	Currency       string `json:"currency"`
}

// SubscriptionView is the per-user flattened projection: aggregate metadata
// joined with the one matching subscriber's fields.
type SubscriptionView struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	InstrumentType string `json:"instrumentType"`
	Region         string `json:"region"`
	Currency       string `json:"currency"`

	Interval      int                     `json:"interval"`
	Status        domain.SubscriberStatus `json:"status"`
	Notifications domain.ChannelSelection `json:"notifications"`

	InitialNotification    string    `json:"initialNotification"`
	SubsequentNotification string    `json:"subsequentNotification"`
	NextCheckAt            time.Time `json:"nextCheckAt"`
}

func toSubscriptionView(agg domain.StockSubscription, sub domain.Subscriber) SubscriptionView {
	return SubscriptionView{
		ID:                     agg.ID,
		Symbol:                 agg.Symbol,
		Name:                   agg.Name,
		InstrumentType:         agg.InstrumentType,
		Region:                 agg.Region,
		Currency:               agg.Currency,
		Interval:               sub.Interval,
		Status:                 sub.Status,
		Notifications:          sub.Notifications,
		InitialNotification:    sub.InitialNotification,
		SubsequentNotification: sub.SubsequentNotification,
		NextCheckAt:            sub.NextCheckAt,
	}
}

// Subscribe creates the subscriber record, creating the aggregate first if
// no one watches the symbol yet. The duplicate check rides on the store's
// conditional insert, so concurrent subscribes for the same pair cannot
// both succeed. The new subscriber starts playing, with checkpoints
// anchored at anchor and notifications defaulting to the user's email.
func (s *SubscriptionService) Subscribe(ctx context.Context, user domain.User, stock StockSummary, intervalMinutes int, anchor time.Time) (SubscriptionView, error) {
	stock.Symbol = strings.TrimSpace(stock.Symbol)
	stock.Name = strings.TrimSpace(stock.Name)
	if stock.Symbol == "" || stock.Name == "" {
		return SubscriptionView{}, ErrMissingFields
	}

	cp, err := ComputeCheckpoints(anchor, intervalMinutes)
	if err != nil {
		return SubscriptionView{}, err
	}

	now := time.Now().UTC()
	sub := domain.Subscriber{
		SubscriberID:           user.UUID,
		Interval:               intervalMinutes,
		Status:                 domain.StatusPlaying,
		Notifications:          defaultNotifications(user),
		InitialNotification:    cp.InitialLabel,
		SubsequentNotification: cp.SubsequentLabel,
		NextCheckAt:            cp.Subsequent,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	agg, err := s.repo.FindBySymbol(ctx, stock.Symbol)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		created, err := s.repo.Create(ctx, domain.StockSubscription{
			ID:             xid.New().String(),
			Symbol:         stock.Symbol,
			Name:           stock.Name,
			InstrumentType: stock.InstrumentType,
			Region:         stock.Region,
			Currency:       stock.Currency,
			Subscribers:    []domain.Subscriber{sub},
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err == nil {
			s.publishLifecycle("subscription.created", created, user.UUID)
			return toSubscriptionView(created, sub), nil
		}
		if !errors.Is(err, ports.ErrConflict) {
			return SubscriptionView{}, err
		}
		// Another subscriber created the aggregate first; fall through to
		// the append path.
		agg, err = s.repo.FindBySymbol(ctx, stock.Symbol)
		if err != nil {
			return SubscriptionView{}, err
		}
	case err != nil:
		return SubscriptionView{}, err
	}

	updated, err := s.repo.AddSubscriber(ctx, agg.ID, sub)
	if err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return SubscriptionView{}, ErrAlreadySubscribed
		}
		return SubscriptionView{}, err
	}
	s.publishLifecycle("subscription.subscribed", updated, user.UUID)
	return toSubscriptionView(updated, sub), nil
}

// Pause sets the subscriber to paused and re-anchors the schedule at
// resumeAnchor. Recomputation always happens, even if the interval is
// unchanged: any elapsed partial interval is deliberately discarded.
func (s *SubscriptionService) Pause(ctx context.Context, subscriptionID, subscriberID string, resumeAnchor time.Time, intervalMinutes int) (SubscriptionView, error) {
	return s.transition(ctx, "subscription.paused", subscriptionID, subscriberID, domain.StatusPaused, resumeAnchor, intervalMinutes)
}

// Play is symmetric to Pause: status playing, schedule re-anchored at
// startAnchor.
func (s *SubscriptionService) Play(ctx context.Context, subscriptionID, subscriberID string, startAnchor time.Time, intervalMinutes int) (SubscriptionView, error) {
	return s.transition(ctx, "subscription.played", subscriptionID, subscriberID, domain.StatusPlaying, startAnchor, intervalMinutes)
}

func (s *SubscriptionService) transition(ctx context.Context, topic, subscriptionID, subscriberID string, status domain.SubscriberStatus, anchor time.Time, intervalMinutes int) (SubscriptionView, error) {
	cp, err := ComputeCheckpoints(anchor, intervalMinutes)
	if err != nil {
		return SubscriptionView{}, err
	}

	updated, err := s.repo.UpdateSubscriberSchedule(ctx, subscriptionID, subscriberID, ports.ScheduleUpdate{
		Status:                 status,
		Interval:               intervalMinutes,
		InitialNotification:    cp.InitialLabel,
		SubsequentNotification: cp.SubsequentLabel,
		NextCheckAt:            cp.Subsequent,
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return SubscriptionView{}, ErrSubscriberNotFound
		}
		return SubscriptionView{}, err
	}

	sub, ok := updated.FindSubscriber(subscriberID)
	if !ok {
		return SubscriptionView{}, ErrSubscriberNotFound
	}
	s.publishLifecycle(topic, updated, subscriberID)
	return toSubscriptionView(updated, sub), nil
}

// Unsubscribe removes the subscriber record entirely. A missing record is
// an error (subscriber_not_found) so callers can tell a real removal from a
// no-op; a caller retrying after a timeout should treat that error as
// confirmation that the removal already happened. The aggregate survives
// even with zero subscribers left.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, subscriptionID, subscriberID string) (domain.StockSubscription, error) {
	updated, err := s.repo.RemoveSubscriber(ctx, subscriptionID, subscriberID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.StockSubscription{}, ErrSubscriberNotFound
		}
		return domain.StockSubscription{}, err
	}
	s.publishLifecycle("subscription.removed", updated, subscriberID)
	return updated, nil
}

// SaveNotifications performs the diff-based commit of a preference buffer:
// the persisted selection is loaded, compared structurally, and replaced in
// a single matched-element update only when it actually differs. Sibling
// subscribers' selections are untouched.
func (s *SubscriptionService) SaveNotifications(ctx context.Context, subscriptionID, subscriberID string, sel domain.ChannelSelection) (SubscriptionView, error) {
	if err := validateSelection(sel); err != nil {
		return SubscriptionView{}, err
	}

	agg, err := s.repo.Get(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return SubscriptionView{}, ErrSubscriberNotFound
		}
		return SubscriptionView{}, err
	}
	current, ok := agg.FindSubscriber(subscriberID)
	if !ok {
		return SubscriptionView{}, ErrSubscriberNotFound
	}
	if current.Notifications.Equal(sel) {
		return SubscriptionView{}, ErrNoChanges
	}

	updated, err := s.repo.SetSubscriberNotifications(ctx, subscriptionID, subscriberID, sel)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return SubscriptionView{}, ErrSubscriberNotFound
		}
		return SubscriptionView{}, err
	}
	sub, ok := updated.FindSubscriber(subscriberID)
	if !ok {
		return SubscriptionView{}, ErrSubscriberNotFound
	}
	s.publishLifecycle("notifications.saved", updated, subscriberID)
	return toSubscriptionView(updated, sub), nil
}

// ListForSubscriber projects the per-user view: one record per aggregate
// where the subscriber appears. Pure read, safe to re-run.
func (s *SubscriptionService) ListForSubscriber(ctx context.Context, subscriberID string) ([]SubscriptionView, error) {
	aggs, err := s.repo.ListBySubscriber(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	out := make([]SubscriptionView, 0, len(aggs))
	for _, agg := range aggs {
		sub, ok := agg.FindSubscriber(subscriberID)
		if !ok {
			continue
		}
		out = append(out, toSubscriptionView(agg, sub))
	}
	return out, nil
}

func defaultNotifications(user domain.User) domain.ChannelSelection {
	if strings.TrimSpace(user.Email) == "" {
		return domain.ChannelSelection{"email": {}}
	}
	return domain.ChannelSelection{"email": {user.Email}}
}

// validateSelection enforces the single-active-channel policy and known
// channel names. Profile catalog membership is the user directory's
// business, not checked here.
func validateSelection(sel domain.ChannelSelection) error {
	if len(sel) > 1 {
		return ErrMultipleChannels
	}
	for ch := range sel {
		if !knownChannel(ch) {
			return ErrMissingFields
		}
	}
	return nil
}

func knownChannel(name string) bool {
	for _, ch := range domain.Channels {
		if ch == name {
			return true
		}
	}
	return false
}

type lifecycleEvent struct {
	SubscriptionID string `json:"subscriptionId"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	SubscriberID   string `json:"subscriberId"`
	Subscribers    int    `json:"subscribers"`
}

func (s *SubscriptionService) publishLifecycle(topic string, agg domain.StockSubscription, subscriberID string) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(lifecycleEvent{
		SubscriptionID: agg.ID,
		Symbol:         agg.Symbol,
		Name:           agg.Name,
		SubscriberID:   subscriberID,
		Subscribers:    len(agg.Subscribers),
	})
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}

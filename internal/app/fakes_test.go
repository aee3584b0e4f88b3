package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

// fakeSubscriptionRepo is an in-memory SubscriptionRepository with the same
// atomicity contract as the sqlite adapter.
type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	aggs map[string]domain.StockSubscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{aggs: map[string]domain.StockSubscription{}}
}

func (r *fakeSubscriptionRepo) FindBySymbol(_ context.Context, symbol string) (domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, agg := range r.aggs {
		if agg.Symbol == symbol {
			return cloneAgg(agg), nil
		}
	}
	return domain.StockSubscription{}, ports.ErrNotFound
}

func (r *fakeSubscriptionRepo) Get(_ context.Context, id string) (domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggs[id]
	if !ok {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	return cloneAgg(agg), nil
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, agg domain.StockSubscription) (domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.aggs {
		if existing.Symbol == agg.Symbol {
			return domain.StockSubscription{}, ports.ErrConflict
		}
	}
	r.aggs[agg.ID] = cloneAgg(agg)
	return cloneAgg(agg), nil
}

func (r *fakeSubscriptionRepo) AddSubscriber(_ context.Context, subscriptionID string, sub domain.Subscriber) (domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggs[subscriptionID]
	if !ok {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	if _, dup := agg.FindSubscriber(sub.SubscriberID); dup {
		return domain.StockSubscription{}, ports.ErrConflict
	}
	agg.Subscribers = append(agg.Subscribers, sub)
	r.aggs[subscriptionID] = agg
	return cloneAgg(agg), nil
}

func (r *fakeSubscriptionRepo) UpdateSubscriberSchedule(_ context.Context, subscriptionID, subscriberID string, upd ports.ScheduleUpdate) (domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggs[subscriptionID]
	if !ok {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	for i, sub := range agg.Subscribers {
		if sub.SubscriberID != subscriberID {
			continue
		}
		sub.Status = upd.Status
		sub.Interval = upd.Interval
		sub.InitialNotification = upd.InitialNotification
		sub.SubsequentNotification = upd.SubsequentNotification
		sub.NextCheckAt = upd.NextCheckAt
		sub.UpdatedAt = time.Now().UTC()
		agg.Subscribers[i] = sub
		r.aggs[subscriptionID] = agg
		return cloneAgg(agg), nil
	}
	return domain.StockSubscription{}, ports.ErrNotFound
}

func (r *fakeSubscriptionRepo) SetSubscriberNotifications(_ context.Context, subscriptionID, subscriberID string, sel domain.ChannelSelection) (domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggs[subscriptionID]
	if !ok {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	for i, sub := range agg.Subscribers {
		if sub.SubscriberID != subscriberID {
			continue
		}
		sub.Notifications = sel.Clone()
		agg.Subscribers[i] = sub
		r.aggs[subscriptionID] = agg
		return cloneAgg(agg), nil
	}
	return domain.StockSubscription{}, ports.ErrNotFound
}

func (r *fakeSubscriptionRepo) RemoveSubscriber(_ context.Context, subscriptionID, subscriberID string) (domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agg, ok := r.aggs[subscriptionID]
	if !ok {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	for i, sub := range agg.Subscribers {
		if sub.SubscriberID != subscriberID {
			continue
		}
		agg.Subscribers = append(agg.Subscribers[:i:i], agg.Subscribers[i+1:]...)
		r.aggs[subscriptionID] = agg
		return cloneAgg(agg), nil
	}
	return domain.StockSubscription{}, ports.ErrNotFound
}

func (r *fakeSubscriptionRepo) ListBySubscriber(_ context.Context, subscriberID string) ([]domain.StockSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.StockSubscription{}
	for _, agg := range r.aggs {
		if _, ok := agg.FindSubscriber(subscriberID); ok {
			out = append(out, cloneAgg(agg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeSubscriptionRepo) DueChecks(_ context.Context, now time.Time, limit int) ([]domain.DueCheck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.DueCheck{}
	for _, agg := range r.aggs {
		for _, sub := range agg.Subscribers {
			if sub.Status != domain.StatusPlaying || sub.NextCheckAt.After(now) {
				continue
			}
			out = append(out, domain.DueCheck{
				SubscriptionID: agg.ID,
				Symbol:         agg.Symbol,
				SubscriberID:   sub.SubscriberID,
				Interval:       sub.Interval,
				Notifications:  sub.Notifications.Clone(),
				NextCheckAt:    sub.NextCheckAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextCheckAt.Before(out[j].NextCheckAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneAgg(agg domain.StockSubscription) domain.StockSubscription {
	out := agg
	out.Subscribers = make([]domain.Subscriber, len(agg.Subscribers))
	copy(out.Subscribers, agg.Subscribers)
	return out
}

// fakeDispatchRepo is an in-memory DispatchRepository.
type fakeDispatchRepo struct {
	mu         sync.Mutex
	dispatches map[string]domain.Dispatch
	order      []string
}

func newFakeDispatchRepo() *fakeDispatchRepo {
	return &fakeDispatchRepo{dispatches: map[string]domain.Dispatch{}}
}

func (r *fakeDispatchRepo) Create(_ context.Context, d domain.Dispatch) (domain.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches[d.ID] = d
	r.order = append(r.order, d.ID)
	return d, nil
}

func (r *fakeDispatchRepo) Get(_ context.Context, id string) (domain.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dispatches[id]
	if !ok {
		return domain.Dispatch{}, ports.ErrNotFound
	}
	return d, nil
}

func (r *fakeDispatchRepo) List(_ context.Context, state domain.DispatchState, limit int) ([]domain.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Dispatch{}
	for _, id := range r.order {
		d := r.dispatches[id]
		if state != "" && d.State != state {
			continue
		}
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeDispatchRepo) ClaimNextQueued(_ context.Context) (domain.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		d := r.dispatches[id]
		if d.State != domain.DispatchQueued {
			continue
		}
		d.State = domain.DispatchClaimed
		d.UpdatedAt = time.Now().UTC()
		r.dispatches[id] = d
		return d, nil
	}
	return domain.Dispatch{}, ports.ErrNotFound
}

func (r *fakeDispatchRepo) UpdateState(_ context.Context, id string, expected, next domain.DispatchState) (domain.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dispatches[id]
	if !ok || d.State != expected {
		return domain.Dispatch{}, ports.ErrNotFound
	}
	d.State = next
	d.UpdatedAt = time.Now().UTC()
	r.dispatches[id] = d
	return d, nil
}

func (r *fakeDispatchRepo) UpdateError(_ context.Context, id string, code, message string) (domain.Dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dispatches[id]
	if !ok {
		return domain.Dispatch{}, ports.ErrNotFound
	}
	d.ErrorCode = code
	d.ErrorMessage = message
	r.dispatches[id] = d
	return d, nil
}

func (r *fakeDispatchRepo) CancelQueuedFor(_ context.Context, subscriptionID, subscriberID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, d := range r.dispatches {
		if d.State != domain.DispatchQueued || d.SubscriptionID != subscriptionID || d.SubscriberID != subscriberID {
			continue
		}
		d.State = domain.DispatchCanceled
		r.dispatches[id] = d
		n++
	}
	return n, nil
}

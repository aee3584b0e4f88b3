package ports

import (
	"context"
	"time"

	"github.com/tickerping/tickerping/internal/domain"
)

// ScheduleUpdate is the field-scoped partial update applied to exactly one
// embedded subscriber. Sibling subscribers on the same aggregate must never
// be affected.
type ScheduleUpdate struct {
	Status                 domain.SubscriberStatus
	Interval               int
	InitialNotification    string
	SubsequentNotification string
	NextCheckAt            time.Time
}

// SubscriptionRepository is the registry store. Every mutation is atomic at
// single-aggregate granularity and returns the post-update aggregate, so
// callers can distinguish "not found" (ErrNotFound) from "found but no-op".
type SubscriptionRepository interface {
	FindBySymbol(ctx context.Context, symbol string) (domain.StockSubscription, error)
	Get(ctx context.Context, id string) (domain.StockSubscription, error)

	// Create persists a new aggregate with its first subscriber. Returns
	// ErrConflict if an aggregate already exists for the symbol.
	Create(ctx context.Context, sub domain.StockSubscription) (domain.StockSubscription, error)

	// AddSubscriber appends a subscriber to an existing aggregate. The
	// uniqueness check and the append are a single atomic conditional
	// insert: concurrent attempts for the same (aggregate, subscriber)
	// pair cannot both succeed. Returns ErrConflict on duplicate,
	// ErrNotFound if the aggregate does not exist.
	AddSubscriber(ctx context.Context, subscriptionID string, sub domain.Subscriber) (domain.StockSubscription, error)

	// UpdateSubscriberSchedule applies a matched-element update to the one
	// subscriber identified by subscriberID. Returns ErrNotFound when no
	// such subscriber exists on the aggregate.
	UpdateSubscriberSchedule(ctx context.Context, subscriptionID, subscriberID string, upd ScheduleUpdate) (domain.StockSubscription, error)

	// SetSubscriberNotifications atomically replaces the notifications
	// selection of the matching subscriber only.
	SetSubscriberNotifications(ctx context.Context, subscriptionID, subscriberID string, sel domain.ChannelSelection) (domain.StockSubscription, error)

	// RemoveSubscriber pulls the subscriber record. The aggregate is kept
	// even when its subscriber list becomes empty.
	RemoveSubscriber(ctx context.Context, subscriptionID, subscriberID string) (domain.StockSubscription, error)

	// ListBySubscriber returns every aggregate where the subscriber id
	// appears. Pure read, restartable.
	ListBySubscriber(ctx context.Context, subscriberID string) ([]domain.StockSubscription, error)

	// DueChecks returns playing subscribers whose next checkpoint is at or
	// before now, oldest first.
	DueChecks(ctx context.Context, now time.Time, limit int) ([]domain.DueCheck, error)
}

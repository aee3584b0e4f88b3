package ports

import (
	"context"

	"github.com/tickerping/tickerping/internal/domain"
)

type DispatchRepository interface {
	Create(ctx context.Context, d domain.Dispatch) (domain.Dispatch, error)
	Get(ctx context.Context, id string) (domain.Dispatch, error)
	List(ctx context.Context, state domain.DispatchState, limit int) ([]domain.Dispatch, error)
	// ClaimNextQueued passe le plus vieux dispatch "queued" à l'état
	// "claimed" et le renvoie. ErrNotFound si la file est vide.
	ClaimNextQueued(ctx context.Context) (domain.Dispatch, error)
	// UpdateState applies the transition only when the current state
	// matches expected (conditional update). ErrNotFound otherwise.
	UpdateState(ctx context.Context, id string, expected, next domain.DispatchState) (domain.Dispatch, error)
	UpdateError(ctx context.Context, id string, code, message string) (domain.Dispatch, error)
	// CancelQueuedFor cancels every queued dispatch for the given
	// (aggregate, subscriber) pair and reports how many were canceled.
	CancelQueuedFor(ctx context.Context, subscriptionID, subscriberID string) (int, error)
}

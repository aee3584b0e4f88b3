package domain

import (
	"errors"
	"time"
)

type DispatchState string

const (
	DispatchQueued    DispatchState = "queued"
	DispatchClaimed   DispatchState = "claimed"
	DispatchDelivered DispatchState = "delivered"
	DispatchFailed    DispatchState = "failed"
	DispatchCanceled  DispatchState = "canceled"
)

func (s DispatchState) IsTerminal() bool {
	return s == DispatchDelivered || s == DispatchFailed || s == DispatchCanceled
}

// Dispatch records a single due notification check: who should be notified
// about which symbol, and when the checkpoint came due. Delivery itself is
// performed by an external worker that claims the dispatch over the API;
// this core never retries or sends anything.
type Dispatch struct {
	ID             string
	SubscriptionID string
	Symbol         string
	SubscriberID   string
	Channels       ChannelSelection
	DueAt          time.Time
	State          DispatchState
	CreatedAt      time.Time
	UpdatedAt      time.Time

	ErrorCode    string
	ErrorMessage string
}

var ErrInvalidDispatchTransition = errors.New("invalid dispatch state transition")

func CanTransitionDispatch(from, to DispatchState) bool {
	if from == to {
		return true
	}
	switch from {
	case DispatchQueued:
		return to == DispatchClaimed || to == DispatchCanceled
	case DispatchClaimed:
		return to == DispatchDelivered || to == DispatchFailed
	case DispatchDelivered, DispatchFailed, DispatchCanceled:
		return false
	default:
		return false
	}
}

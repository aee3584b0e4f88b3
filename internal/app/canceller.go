package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/tickerping/tickerping/internal/ports"
)

// DispatchCanceller listens for unsubscribe events and drops the queued
// dispatches of the removed pair, so an external delivery worker never
// claims a check for a subscriber who already left.
type DispatchCanceller struct {
	logger     zerolog.Logger
	bus        ports.EventBus
	dispatches *DispatchService
}

func NewDispatchCanceller(logger zerolog.Logger, bus ports.EventBus, dispatches *DispatchService) *DispatchCanceller {
	return &DispatchCanceller{logger: logger, bus: bus, dispatches: dispatches}
}

func (c *DispatchCanceller) Run(ctx context.Context) {
	if c == nil || c.bus == nil || c.dispatches == nil {
		return
	}
	ch, cancel := c.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("dispatch canceller stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			c.handleEvent(ctx, evt)
		}
	}
}

func (c *DispatchCanceller) handleEvent(ctx context.Context, evt ports.Event) {
	if evt.Topic != "subscription.removed" {
		return
	}

	var e lifecycleEvent
	if err := json.Unmarshal(evt.Payload, &e); err != nil {
		return
	}
	if e.SubscriptionID == "" || e.SubscriberID == "" {
		return
	}

	n, err := c.dispatches.CancelFor(ctx, e.SubscriptionID, e.SubscriberID)
	if err != nil {
		c.logger.Error().Err(err).
			Str("subscription_id", e.SubscriptionID).
			Str("subscriber_id", e.SubscriberID).
			Msg("cancel queued dispatches failed")
		return
	}
	if n > 0 {
		c.logger.Info().
			Int("canceled", n).
			Str("subscription_id", e.SubscriptionID).
			Str("subscriber_id", e.SubscriberID).
			Msg("queued dispatches canceled after unsubscribe")
	}
}

package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"

	"github.com/tickerping/tickerping/internal/ports"
)

var ErrNotFound = ports.ErrNotFound

var (
	ErrInvalidInterval = errors.New("interval must be a positive number of minutes")
	ErrInvalidAnchor   = errors.New("a valid anchor time is required")

	ErrAlreadySubscribed  = errors.New("already subscribed to this stock")
	ErrSubscriberNotFound = errors.New("no matching subscriber found")

	// ErrNoChanges: le buffer de préférences est identique à la sélection
	// persistée, la sauvegarde est refusée.
	ErrNoChanges = errors.New("no changes to save")

	ErrChannelDisabled = errors.New("channel is not enabled")

	ErrMissingFields    = errors.New("all fields are required")
	ErrMultipleChannels = errors.New("only one channel may be enabled at a time")

	ErrAuthenticationRequired = errors.New("authentication required")
	ErrUserNotFound           = errors.New("user not found, please login again")
)

// Outcome kinds: the small fixed vocabulary surfaced to API callers.
const (
	KindInvalidInput       = "invalid_input"
	KindInvalidInterval    = "invalid_interval"
	KindAlreadySubscribed  = "already_subscribed"
	KindSubscriberNotFound = "subscriber_not_found"
	KindNotFound           = "not_found"
	KindNoChanges          = "no_changes"
	KindAuthRequired       = "authentication_required"
	KindUserNotFound       = "user_not_found"
	KindTimeout            = "timeout"
	KindStoreUnavailable   = "store_unavailable"
	KindUnknown            = "unknown"
)

// Kind maps an error to its stable outcome kind. Unrecognised errors are
// "unknown": callers log them with context and surface a generic message.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInterval):
		return KindInvalidInterval
	case errors.Is(err, ErrInvalidAnchor),
		errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrMultipleChannels),
		errors.Is(err, ErrChannelDisabled):
		return KindInvalidInput
	case errors.Is(err, ErrAlreadySubscribed):
		return KindAlreadySubscribed
	case errors.Is(err, ErrSubscriberNotFound):
		return KindSubscriberNotFound
	case errors.Is(err, ErrNoChanges):
		return KindNoChanges
	case errors.Is(err, ErrAuthenticationRequired):
		return KindAuthRequired
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ports.ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	// Pannes de connexion au stockage: transitoires, le client peut
	// réessayer, contrairement à un kind unknown.
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, sql.ErrTxDone):
		return KindStoreUnavailable
	default:
		return KindUnknown
	}
}

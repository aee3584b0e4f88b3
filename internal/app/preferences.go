package app

import (
	"github.com/tickerping/tickerping/internal/domain"
)

// NotificationEditor is the session-scoped working buffer for a
// subscriber's channel/profile selection. Toggles mutate only the buffer;
// nothing is persisted until the caller commits the selection through
// SubscriptionService.SaveNotifications, which refuses an unchanged buffer.
// One editor per UI session; it is not safe for concurrent use.
type NotificationEditor struct {
	persisted domain.ChannelSelection
	buffer    domain.ChannelSelection
}

// NewNotificationEditor loads a buffer from the persisted selection.
func NewNotificationEditor(persisted domain.ChannelSelection) *NotificationEditor {
	if persisted == nil {
		persisted = domain.ChannelSelection{}
	}
	return &NotificationEditor{
		persisted: persisted.Clone(),
		buffer:    persisted.Clone(),
	}
}

// ToggleChannel flips a channel's enabled state. Enabling a channel clears
// every other channel: only one channel may be active at a time. This is a
// deliberate policy, not a limitation. A freshly enabled channel starts
// with an empty profile set ("enabled but unconfigured").
func (e *NotificationEditor) ToggleChannel(channel string) error {
	if !knownChannel(channel) {
		return ErrMissingFields
	}
	if _, enabled := e.buffer[channel]; enabled {
		delete(e.buffer, channel)
		return nil
	}
	e.buffer = domain.ChannelSelection{channel: {}}
	return nil
}

// ToggleProfile adds or removes a profile on an enabled channel. Toggling
// on a disabled channel fails rather than implicitly enabling it, so the
// single-active-channel policy stays the only enablement path.
func (e *NotificationEditor) ToggleProfile(channel, profile string) error {
	profiles, enabled := e.buffer[channel]
	if !enabled {
		return ErrChannelDisabled
	}
	for i, p := range profiles {
		if p == profile {
			e.buffer[channel] = append(profiles[:i:i], profiles[i+1:]...)
			return nil
		}
	}
	e.buffer[channel] = append(profiles, profile)
	return nil
}

// Dirty reports whether the buffer structurally differs from the persisted
// selection. Save controls should be disabled while it returns false.
func (e *NotificationEditor) Dirty() bool {
	return !e.buffer.Equal(e.persisted)
}

// Selection returns a copy of the working buffer, ready to be committed.
func (e *NotificationEditor) Selection() domain.ChannelSelection {
	return e.buffer.Clone()
}

// MarkSaved realigns the persisted snapshot after a successful commit, so
// the same editor can keep serving the session.
func (e *NotificationEditor) MarkSaved() {
	e.persisted = e.buffer.Clone()
}

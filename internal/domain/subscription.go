package domain

import (
	"sort"
	"time"
)

type SubscriberStatus string

const (
	StatusPlaying SubscriberStatus = "playing"
	StatusPaused  SubscriberStatus = "paused"
)

func (s SubscriberStatus) Valid() bool {
	return s == StatusPlaying || s == StatusPaused
}

// Channels liste les canaux de notification connus. L'ordre sert à
// l'affichage et à la normalisation des sélections.
var Channels = []string{
	"email", "sms", "call", "voicemail",
	"whatsapp", "telegram", "signal", "viber",
	"messenger", "wechat", "line", "slack",
	"microsoftTeams", "discord",
	"facebook", "instagram", "twitter", "linkedin", "threads",
}

// ChannelSelection maps a channel name to the delivery profiles enabled on
// it. A channel present with an empty set is "enabled but unconfigured".
type ChannelSelection map[string][]string

func (c ChannelSelection) Clone() ChannelSelection {
	if c == nil {
		return nil
	}
	out := make(ChannelSelection, len(c))
	for ch, profiles := range c {
		cp := make([]string, len(profiles))
		copy(cp, profiles)
		out[ch] = cp
	}
	return out
}

// Equal compares two selections structurally. Profile order matters within
// a channel (the sets are ordered), channel iteration order does not.
func (c ChannelSelection) Equal(other ChannelSelection) bool {
	if len(c) != len(other) {
		return false
	}
	for ch, profiles := range c {
		op, ok := other[ch]
		if !ok || len(op) != len(profiles) {
			return false
		}
		for i := range profiles {
			if profiles[i] != op[i] {
				return false
			}
		}
	}
	return true
}

// EnabledChannels renvoie les canaux actifs, triés.
func (c ChannelSelection) EnabledChannels() []string {
	out := make([]string, 0, len(c))
	for ch := range c {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Subscriber is owned exclusively by its StockSubscription. SubscriberID is
// a weak reference to a User; this package never mutates user data.
type Subscriber struct {
	SubscriberID string

	// Interval in minutes between notification checks. Always positive.
	Interval int

	Status SubscriberStatus

	Notifications ChannelSelection

	// Display-only checkpoint labels, recomputed on every transition that
	// affects interval or status.
	InitialNotification    string
	SubsequentNotification string

	// NextCheckAt is the machine-readable subsequent checkpoint, used by
	// the scanner's due query.
	NextCheckAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockSubscription is the aggregate root: one record per traded symbol,
// owning its subscriber list. Descriptive metadata is immutable after
// creation. The aggregate is never deleted automatically, even when its
// subscriber list becomes empty.
type StockSubscription struct {
	ID string

	Symbol         string
	Name           string
	InstrumentType string
	Region         string
	Currency       string

	Subscribers []Subscriber

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindSubscriber returns the subscriber record for id, if any.
func (s StockSubscription) FindSubscriber(id string) (Subscriber, bool) {
	for _, sub := range s.Subscribers {
		if sub.SubscriberID == id {
			return sub, true
		}
	}
	return Subscriber{}, false
}

// DueCheck is the scanner's flattened view of a playing subscriber whose
// subsequent checkpoint has come due.
type DueCheck struct {
	SubscriptionID string
	Symbol         string
	SubscriberID   string
	Interval       int
	Notifications  ChannelSelection
	NextCheckAt    time.Time
}

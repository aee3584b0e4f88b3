package domain

import "time"

// User is an external entity referenced by subscriber id. The registry only
// reads it: email seeds the default notification selection on subscribe, and
// Profiles is the catalog of delivery profiles the user has declared per
// channel (the authority for what a ChannelSelection may reference).
type User struct {
	UUID  string
	Email string
	Name  string

	Profiles ChannelSelection

	CreatedAt time.Time
	UpdatedAt time.Time
}

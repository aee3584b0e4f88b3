package app

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/tickerping/tickerping/internal/ports"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidInterval, KindInvalidInterval},
		{ErrInvalidAnchor, KindInvalidInput},
		{ErrMissingFields, KindInvalidInput},
		{ErrMultipleChannels, KindInvalidInput},
		{ErrChannelDisabled, KindInvalidInput},
		{ErrAlreadySubscribed, KindAlreadySubscribed},
		{ErrSubscriberNotFound, KindSubscriberNotFound},
		{ErrNoChanges, KindNoChanges},
		{ErrAuthenticationRequired, KindAuthRequired},
		{ErrUserNotFound, KindUserNotFound},
		{ports.ErrNotFound, KindNotFound},
		{context.DeadlineExceeded, KindTimeout},
		{driver.ErrBadConn, KindStoreUnavailable},
		{sql.ErrConnDone, KindStoreUnavailable},
		{sql.ErrTxDone, KindStoreUnavailable},
		{errors.New("boom"), KindUnknown},
	}
	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestKind_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("subscribe: %w", ErrAlreadySubscribed)
	if got := Kind(wrapped); got != KindAlreadySubscribed {
		t.Fatalf("Kind(wrapped) = %q, want %q", got, KindAlreadySubscribed)
	}
}

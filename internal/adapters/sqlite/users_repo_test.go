package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

func TestUsersRepository_PutAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUsersRepository(openTestDB(t).SQL)

	if _, err := repo.GetByUUID(ctx, "8a7b1c2d-0000-4000-8000-000000000001"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("unknown user: got %v, want ErrNotFound", err)
	}

	saved, err := repo.Put(ctx, domain.User{
		UUID:     "8a7b1c2d-0000-4000-8000-000000000001",
		Email:    "ada@example.com",
		Name:     "Ada",
		Profiles: domain.ChannelSelection{"telegram": {"perso"}},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if saved.Email != "ada@example.com" || saved.Name != "Ada" {
		t.Fatalf("unexpected user: %+v", saved)
	}
	if !saved.Profiles.Equal(domain.ChannelSelection{"telegram": {"perso"}}) {
		t.Fatalf("profiles round-trip: %+v", saved.Profiles)
	}

	// Upsert: même uuid, nouveaux champs.
	updated, err := repo.Put(ctx, domain.User{
		UUID:     "8a7b1c2d-0000-4000-8000-000000000001",
		Email:    "ada@new.example.com",
		Name:     "Ada L.",
		Profiles: domain.ChannelSelection{"slack": {"ops"}},
	})
	if err != nil {
		t.Fatalf("Put(upsert): %v", err)
	}
	if updated.Email != "ada@new.example.com" {
		t.Fatalf("email not updated: %+v", updated)
	}
	if !updated.Profiles.Equal(domain.ChannelSelection{"slack": {"ops"}}) {
		t.Fatalf("profiles not replaced: %+v", updated.Profiles)
	}
}

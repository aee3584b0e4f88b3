package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

// UserService resolves authenticated caller identities to subscriber ids
// and lets users maintain their own delivery-profile catalog. Subscription
// code only ever holds the resolved domain.User by value.
type UserService struct {
	repo ports.UserRepository
}

func NewUserService(repo ports.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Resolve maps an authenticated identity to its User record. The id must
// be a well-formed uuid; anything else is an authentication problem, not a
// lookup miss.
func (s *UserService) Resolve(ctx context.Context, id string) (domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.User{}, ErrAuthenticationRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, ErrAuthenticationRequired
	}

	user, err := s.repo.GetByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// SaveProfile upserts the caller's own record: email plus the per-channel
// profile catalog their notification selections may reference.
func (s *UserService) SaveProfile(ctx context.Context, id, email, name string, profiles domain.ChannelSelection) (domain.User, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, ErrAuthenticationRequired
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.User{}, ErrMissingFields
	}
	for ch := range profiles {
		if !knownChannel(ch) {
			return domain.User{}, ErrMissingFields
		}
	}

	now := time.Now().UTC()
	return s.repo.Put(ctx, domain.User{
		UUID:      id,
		Email:     email,
		Name:      strings.TrimSpace(name),
		Profiles:  profiles.Clone(),
		UpdatedAt: now,
		CreatedAt: now,
	})
}

package ports

import (
	"context"

	"github.com/tickerping/tickerping/internal/domain"
)

// UserRepository is the identity collaborator's storage boundary. The core
// reads users to resolve authenticated callers; Put exists so users can
// maintain their own email and delivery-profile catalog.
type UserRepository interface {
	GetByUUID(ctx context.Context, uuid string) (domain.User, error)
	Put(ctx context.Context, user domain.User) (domain.User, error)
}

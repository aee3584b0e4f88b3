package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

type UsersRepository struct {
	db *sql.DB
}

func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

func (r *UsersRepository) GetByUUID(ctx context.Context, uuid string) (domain.User, error) {
	var u domain.User
	var profiles, created, updated string
	err := r.db.QueryRowContext(ctx, `
		SELECT uuid, email, name, profiles_json, created_at, updated_at
		FROM users WHERE uuid = ?
	`, uuid).Scan(&u.UUID, &u.Email, &u.Name, &profiles, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ports.ErrNotFound
		}
		return domain.User{}, err
	}
	u.Profiles = parseSelection(profiles)
	u.CreatedAt = parseTime(created)
	u.UpdatedAt = parseTime(updated)
	return u, nil
}

func (r *UsersRepository) Put(ctx context.Context, user domain.User) (domain.User, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users(uuid, email, name, profiles_json, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			profiles_json = excluded.profiles_json,
			updated_at = excluded.updated_at
	`, user.UUID, user.Email, user.Name, formatSelection(user.Profiles),
		formatTime(now), formatTime(now))
	if err != nil {
		return domain.User{}, err
	}
	return r.GetByUUID(ctx, user.UUID)
}

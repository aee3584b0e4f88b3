package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

type DispatchesRepository struct {
	db *sql.DB
}

func NewDispatchesRepository(db *sql.DB) *DispatchesRepository {
	return &DispatchesRepository{db: db}
}

const dispatchColumns = `id, subscription_id, symbol, subscriber_id, channels_json, due_at, state, error_code, error_message, created_at, updated_at`

func (r *DispatchesRepository) Create(ctx context.Context, d domain.Dispatch) (domain.Dispatch, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dispatches(`+dispatchColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.SubscriptionID, d.Symbol, d.SubscriberID, formatSelection(d.Channels),
		formatTime(d.DueAt), string(d.State), d.ErrorCode, d.ErrorMessage,
		formatTime(d.CreatedAt), formatTime(d.UpdatedAt))
	if err != nil {
		return domain.Dispatch{}, err
	}
	return r.Get(ctx, d.ID)
}

func (r *DispatchesRepository) Get(ctx context.Context, id string) (domain.Dispatch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+dispatchColumns+` FROM dispatches WHERE id = ?`, id)
	d, err := scanDispatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Dispatch{}, ports.ErrNotFound
		}
		return domain.Dispatch{}, err
	}
	return d, nil
}

func (r *DispatchesRepository) List(ctx context.Context, state domain.DispatchState, limit int) ([]domain.Dispatch, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	q := `SELECT ` + dispatchColumns + ` FROM dispatches`
	args := []any{}
	if state != "" {
		q += ` WHERE state = ?`
		args = append(args, string(state))
	}
	q += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Dispatch{}
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DispatchesRepository) ClaimNextQueued(ctx context.Context) (domain.Dispatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Dispatch{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx, `
		SELECT id
		FROM dispatches
		WHERE state = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, string(domain.DispatchQueued)).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Dispatch{}, ports.ErrNotFound
		}
		return domain.Dispatch{}, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE dispatches
		SET state = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`, string(domain.DispatchClaimed), formatTime(time.Now().UTC()), id, string(domain.DispatchQueued))
	if err != nil {
		return domain.Dispatch{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Dispatch{}, ports.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return domain.Dispatch{}, err
	}
	return r.Get(ctx, id)
}

func (r *DispatchesRepository) UpdateState(ctx context.Context, id string, expected, next domain.DispatchState) (domain.Dispatch, error) {
	if !domain.CanTransitionDispatch(expected, next) {
		return domain.Dispatch{}, domain.ErrInvalidDispatchTransition
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE dispatches
		SET state = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`, string(next), formatTime(time.Now().UTC()), id, string(expected))
	if err != nil {
		return domain.Dispatch{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Dispatch{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *DispatchesRepository) UpdateError(ctx context.Context, id string, code, message string) (domain.Dispatch, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dispatches
		SET error_code = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`, code, message, formatTime(time.Now().UTC()), id)
	if err != nil {
		return domain.Dispatch{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Dispatch{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *DispatchesRepository) CancelQueuedFor(ctx context.Context, subscriptionID, subscriberID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE dispatches
		SET state = ?, updated_at = ?
		WHERE subscription_id = ? AND subscriber_id = ? AND state = ?
	`, string(domain.DispatchCanceled), formatTime(time.Now().UTC()),
		subscriptionID, subscriberID, string(domain.DispatchQueued))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispatch(row rowScanner) (domain.Dispatch, error) {
	var d domain.Dispatch
	var channels, dueAt, state, created, updated string
	err := row.Scan(&d.ID, &d.SubscriptionID, &d.Symbol, &d.SubscriberID, &channels,
		&dueAt, &state, &d.ErrorCode, &d.ErrorMessage, &created, &updated)
	if err != nil {
		return domain.Dispatch{}, err
	}
	d.Channels = parseSelection(channels)
	d.DueAt = parseTime(dueAt)
	d.State = domain.DispatchState(state)
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	return d, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

// SubscriptionsRepository persists the stock aggregates. The subscriber
// list is re-architected from an embedded array into rows keyed
// (subscription_id, subscriber_id): the uniqueness constraint makes the
// subscribe check-then-append atomic, and matched-element updates are
// plain conditional UPDATEs that cannot touch sibling subscribers.
type SubscriptionsRepository struct {
	db *sql.DB
}

func NewSubscriptionsRepository(db *sql.DB) *SubscriptionsRepository {
	return &SubscriptionsRepository{db: db}
}

func (r *SubscriptionsRepository) FindBySymbol(ctx context.Context, symbol string) (domain.StockSubscription, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM subscriptions WHERE symbol = ?`, symbol).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockSubscription{}, ports.ErrNotFound
		}
		return domain.StockSubscription{}, err
	}
	return r.Get(ctx, id)
}

func (r *SubscriptionsRepository) Get(ctx context.Context, id string) (domain.StockSubscription, error) {
	var agg domain.StockSubscription
	var created, updated string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, symbol, name, instrument_type, region, currency, created_at, updated_at
		FROM subscriptions
		WHERE id = ?
	`, id).Scan(&agg.ID, &agg.Symbol, &agg.Name, &agg.InstrumentType, &agg.Region, &agg.Currency, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockSubscription{}, ports.ErrNotFound
		}
		return domain.StockSubscription{}, err
	}
	agg.CreatedAt = parseTime(created)
	agg.UpdatedAt = parseTime(updated)

	subs, err := r.loadSubscribers(ctx, id)
	if err != nil {
		return domain.StockSubscription{}, err
	}
	agg.Subscribers = subs
	return agg, nil
}

func (r *SubscriptionsRepository) loadSubscribers(ctx context.Context, subscriptionID string) ([]domain.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subscriber_id, interval_minutes, status, notifications_json,
			initial_notification, subsequent_notification, next_check_at,
			created_at, updated_at
		FROM subscribers
		WHERE subscription_id = ?
		ORDER BY created_at ASC, subscriber_id ASC
	`, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Subscriber{}
	for rows.Next() {
		var sub domain.Subscriber
		var notifications, nextCheck, created, updated string
		var status string
		if err := rows.Scan(&sub.SubscriberID, &sub.Interval, &status, &notifications,
			&sub.InitialNotification, &sub.SubsequentNotification, &nextCheck,
			&created, &updated); err != nil {
			return nil, err
		}
		sub.Status = domain.SubscriberStatus(status)
		if !sub.Status.Valid() {
			return nil, fmt.Errorf("subscriber %s: statut inconnu %q", sub.SubscriberID, status)
		}
		sub.Notifications = parseSelection(notifications)
		sub.NextCheckAt = parseTime(nextCheck)
		sub.CreatedAt = parseTime(created)
		sub.UpdatedAt = parseTime(updated)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (r *SubscriptionsRepository) Create(ctx context.Context, agg domain.StockSubscription) (domain.StockSubscription, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.StockSubscription{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO subscriptions(id, symbol, name, instrument_type, region, currency, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, agg.ID, agg.Symbol, agg.Name, agg.InstrumentType, agg.Region, agg.Currency,
		formatTime(agg.CreatedAt), formatTime(agg.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err, "subscriptions.symbol") {
			return domain.StockSubscription{}, ports.ErrConflict
		}
		return domain.StockSubscription{}, err
	}

	for _, sub := range agg.Subscribers {
		if err := insertSubscriber(ctx, tx, agg.ID, sub); err != nil {
			return domain.StockSubscription{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.StockSubscription{}, err
	}
	return r.Get(ctx, agg.ID)
}

func (r *SubscriptionsRepository) AddSubscriber(ctx context.Context, subscriptionID string, sub domain.Subscriber) (domain.StockSubscription, error) {
	// L'existence de l'agrégat d'abord, pour distinguer "agrégat absent"
	// d'un doublon d'abonné.
	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM subscriptions WHERE id = ?`, subscriptionID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StockSubscription{}, ports.ErrNotFound
		}
		return domain.StockSubscription{}, err
	}

	if err := insertSubscriber(ctx, r.db, subscriptionID, sub); err != nil {
		return domain.StockSubscription{}, err
	}
	if err := r.touch(ctx, subscriptionID); err != nil {
		return domain.StockSubscription{}, err
	}
	return r.Get(ctx, subscriptionID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSubscriber(ctx context.Context, db execer, subscriptionID string, sub domain.Subscriber) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO subscribers(
			subscription_id, subscriber_id, interval_minutes, status,
			notifications_json, initial_notification, subsequent_notification,
			next_check_at, created_at, updated_at
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		subscriptionID, sub.SubscriberID, sub.Interval, string(sub.Status),
		formatSelection(sub.Notifications), sub.InitialNotification, sub.SubsequentNotification,
		formatTime(sub.NextCheckAt), formatTime(sub.CreatedAt), formatTime(sub.UpdatedAt),
	)
	if err != nil && isUniqueViolation(err, "subscribers.") {
		return ports.ErrConflict
	}
	return err
}

func (r *SubscriptionsRepository) UpdateSubscriberSchedule(ctx context.Context, subscriptionID, subscriberID string, upd ports.ScheduleUpdate) (domain.StockSubscription, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET status = ?, interval_minutes = ?,
			initial_notification = ?, subsequent_notification = ?,
			next_check_at = ?, updated_at = ?
		WHERE subscription_id = ? AND subscriber_id = ?
	`,
		string(upd.Status), upd.Interval,
		upd.InitialNotification, upd.SubsequentNotification,
		formatTime(upd.NextCheckAt), formatTime(time.Now().UTC()),
		subscriptionID, subscriberID,
	)
	if err != nil {
		return domain.StockSubscription{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	return r.Get(ctx, subscriptionID)
}

func (r *SubscriptionsRepository) SetSubscriberNotifications(ctx context.Context, subscriptionID, subscriberID string, sel domain.ChannelSelection) (domain.StockSubscription, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscribers
		SET notifications_json = ?, updated_at = ?
		WHERE subscription_id = ? AND subscriber_id = ?
	`, formatSelection(sel), formatTime(time.Now().UTC()), subscriptionID, subscriberID)
	if err != nil {
		return domain.StockSubscription{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	return r.Get(ctx, subscriptionID)
}

func (r *SubscriptionsRepository) RemoveSubscriber(ctx context.Context, subscriptionID, subscriberID string) (domain.StockSubscription, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM subscribers
		WHERE subscription_id = ? AND subscriber_id = ?
	`, subscriptionID, subscriberID)
	if err != nil {
		return domain.StockSubscription{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.StockSubscription{}, ports.ErrNotFound
	}
	// L'agrégat vide est conservé: jamais de garbage-collection implicite.
	if err := r.touch(ctx, subscriptionID); err != nil {
		return domain.StockSubscription{}, err
	}
	return r.Get(ctx, subscriptionID)
}

func (r *SubscriptionsRepository) ListBySubscriber(ctx context.Context, subscriberID string) ([]domain.StockSubscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT subscription_id FROM subscribers
		WHERE subscriber_id = ?
		ORDER BY created_at ASC
	`, subscriberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.StockSubscription, 0, len(ids))
	for _, id := range ids {
		agg, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

func (r *SubscriptionsRepository) DueChecks(ctx context.Context, now time.Time, limit int) ([]domain.DueCheck, error) {
	q := `
		SELECT s.subscription_id, a.symbol, s.subscriber_id, s.interval_minutes,
			s.notifications_json, s.next_check_at
		FROM subscribers s
		JOIN subscriptions a ON a.id = s.subscription_id
		WHERE s.status = ? AND s.next_check_at <= ?
		ORDER BY s.next_check_at ASC
	`
	args := []any{string(domain.StatusPlaying), formatTime(now)}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.DueCheck{}
	for rows.Next() {
		var check domain.DueCheck
		var notifications, nextCheck string
		if err := rows.Scan(&check.SubscriptionID, &check.Symbol, &check.SubscriberID,
			&check.Interval, &notifications, &nextCheck); err != nil {
			return nil, err
		}
		check.Notifications = parseSelection(notifications)
		check.NextCheckAt = parseTime(nextCheck)
		out = append(out, check)
	}
	return out, rows.Err()
}

func (r *SubscriptionsRepository) touch(ctx context.Context, subscriptionID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET updated_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), subscriptionID)
	return err
}

// isUniqueViolation détecte les erreurs texte de modernc.org/sqlite, du type:
// "constraint failed: UNIQUE constraint failed: subscriptions.symbol (2067)"
func isUniqueViolation(err error, fragment string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, strings.ToLower(fragment))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func formatSelection(sel domain.ChannelSelection) string {
	if sel == nil {
		sel = domain.ChannelSelection{}
	}
	b, err := json.Marshal(sel)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func parseSelection(s string) domain.ChannelSelection {
	sel := domain.ChannelSelection{}
	if s == "" {
		return sel
	}
	_ = json.Unmarshal([]byte(s), &sel)
	return sel
}

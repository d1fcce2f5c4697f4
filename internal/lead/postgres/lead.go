package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/rti-filing/internal/core/common/pagination"
	"github.com/frahmantamala/rti-filing/internal/lead"
)

const (
	consultationColumns = "id, full_name, email, mobile, consultation_type, preferred_date, message, status, created_at, updated_at"
	callbackColumns     = "id, full_name, mobile, preferred_time, message, status, created_at, updated_at"
	newsletterColumns   = "id, email, status, subscribed_at, unsubscribed_at, created_at, updated_at"
)

// whereStatus returns the shared filter clause for list and count queries.
func whereStatus(filter lead.Filter) (string, []interface{}) {
	if filter.Status == "" {
		return "", nil
	}
	return " WHERE status = ?", []interface{}{filter.Status}
}

func list[T any](ctx context.Context, db *sqlx.DB, table, columns string, filter lead.Filter, page pagination.Params) ([]*T, int64, error) {
	where, args := whereStatus(filter)

	var total int64
	countQuery := db.Rebind("SELECT COUNT(*) FROM " + table + where)
	if err := db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	query := db.Rebind("SELECT " + columns + " FROM " + table + where +
		" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	rows, err := db.QueryxContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	items := make([]*T, 0, page.Limit)
	for rows.Next() {
		item := new(T)
		if err := rows.StructScan(item); err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", table, err)
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func get[T any](ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (*T, error) {
	item := new(T)
	if err := db.GetContext(ctx, item, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func exec(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) error {
	_, err := db.ExecContext(ctx, db.Rebind(query), args...)
	return err
}

type ConsultationRepository struct {
	db *sqlx.DB
}

func NewConsultationRepository(db *sqlx.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

var _ lead.ConsultationRepository = (*ConsultationRepository)(nil)

func (r *ConsultationRepository) Create(ctx context.Context, c *lead.Consultation) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	query := r.db.Rebind(`INSERT INTO consultations
		(full_name, email, mobile, consultation_type, preferred_date, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowxContext(ctx, query,
		c.FullName, c.Email, c.Mobile, c.ConsultationType, c.PreferredDate, c.Message, c.Status, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *ConsultationRepository) FindByID(ctx context.Context, id int64) (*lead.Consultation, error) {
	return get[lead.Consultation](ctx, r.db, "SELECT "+consultationColumns+" FROM consultations WHERE id = ?", id)
}

func (r *ConsultationRepository) FindAll(ctx context.Context, filter lead.Filter, page pagination.Params) ([]*lead.Consultation, int64, error) {
	return list[lead.Consultation](ctx, r.db, "consultations", consultationColumns, filter, page)
}

func (r *ConsultationRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return exec(ctx, r.db, "UPDATE consultations SET status = ?, updated_at = ? WHERE id = ?", status, time.Now().UTC(), id)
}

func (r *ConsultationRepository) Delete(ctx context.Context, id int64) error {
	return exec(ctx, r.db, "DELETE FROM consultations WHERE id = ?", id)
}

type CallbackRepository struct {
	db *sqlx.DB
}

func NewCallbackRepository(db *sqlx.DB) *CallbackRepository {
	return &CallbackRepository{db: db}
}

var _ lead.CallbackRepository = (*CallbackRepository)(nil)

func (r *CallbackRepository) Create(ctx context.Context, c *lead.CallbackRequest) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	query := r.db.Rebind(`INSERT INTO callback_requests
		(full_name, mobile, preferred_time, message, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowxContext(ctx, query,
		c.FullName, c.Mobile, c.PreferredTime, c.Message, c.Status, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *CallbackRepository) FindByID(ctx context.Context, id int64) (*lead.CallbackRequest, error) {
	return get[lead.CallbackRequest](ctx, r.db, "SELECT "+callbackColumns+" FROM callback_requests WHERE id = ?", id)
}

func (r *CallbackRepository) FindAll(ctx context.Context, filter lead.Filter, page pagination.Params) ([]*lead.CallbackRequest, int64, error) {
	return list[lead.CallbackRequest](ctx, r.db, "callback_requests", callbackColumns, filter, page)
}

func (r *CallbackRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return exec(ctx, r.db, "UPDATE callback_requests SET status = ?, updated_at = ? WHERE id = ?", status, time.Now().UTC(), id)
}

func (r *CallbackRepository) Delete(ctx context.Context, id int64) error {
	return exec(ctx, r.db, "DELETE FROM callback_requests WHERE id = ?", id)
}

type NewsletterRepository struct {
	db *sqlx.DB
}

func NewNewsletterRepository(db *sqlx.DB) *NewsletterRepository {
	return &NewsletterRepository{db: db}
}

var _ lead.NewsletterRepository = (*NewsletterRepository)(nil)

func (r *NewsletterRepository) Create(ctx context.Context, s *lead.NewsletterSubscription) error {
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	if s.SubscribedAt.IsZero() {
		s.SubscribedAt = now
	}
	query := r.db.Rebind(`INSERT INTO newsletter_subscriptions
		(email, status, subscribed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowxContext(ctx, query, s.Email, s.Status, s.SubscribedAt, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
}

func (r *NewsletterRepository) FindByEmail(ctx context.Context, email string) (*lead.NewsletterSubscription, error) {
	return get[lead.NewsletterSubscription](ctx, r.db, "SELECT "+newsletterColumns+" FROM newsletter_subscriptions WHERE email = ?", email)
}

func (r *NewsletterRepository) FindAll(ctx context.Context, filter lead.Filter, page pagination.Params) ([]*lead.NewsletterSubscription, int64, error) {
	return list[lead.NewsletterSubscription](ctx, r.db, "newsletter_subscriptions", newsletterColumns, filter, page)
}

// SetStatus flips a subscription between active and unsubscribed and stamps the matching timestamp.
func (r *NewsletterRepository) SetStatus(ctx context.Context, id int64, status string, at time.Time) error {
	at = at.UTC()
	if status == lead.NewsletterActive {
		return exec(ctx, r.db, `UPDATE newsletter_subscriptions
			SET status = ?, subscribed_at = ?, unsubscribed_at = NULL, updated_at = ? WHERE id = ?`, status, at, at, id)
	}
	return exec(ctx, r.db, `UPDATE newsletter_subscriptions
		SET status = ?, unsubscribed_at = ?, updated_at = ? WHERE id = ?`, status, at, at, id)
}

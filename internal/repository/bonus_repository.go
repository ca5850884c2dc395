package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/booking"
	"github.com/mgarsanz/unisport/internal/model"
)

// BonusRepo provides data access to the bonus definition catalog and
// to the entitlements users have purchased from it.
type BonusRepo struct {
	db *sql.DB
}

// NewBonusRepo returns a new BonusRepo bound to the given database.
func NewBonusRepo(db *sql.DB) *BonusRepo { return &BonusRepo{db: db} }

// CreateDefinition inserts a bonus definition and populates its
// generated ID.
func (r *BonusRepo) CreateDefinition(ctx context.Context, b *model.Bonus) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bonuses (activity_id, bonus_type, price_cents) VALUES (?, ?, ?)`,
		b.ActivityID, string(b.Kind), b.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetDefinition fetches a bonus definition by ID.
func (r *BonusRepo) GetDefinition(ctx context.Context, id uint64) (*model.Bonus, error) {
	var b model.Bonus
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, activity_id, bonus_type, price_cents FROM bonuses WHERE id = ?`, id).
		Scan(&b.ID, &b.ActivityID, &kind, &b.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrNotFound
		}
		return nil, err
	}
	b.Kind = model.BonusKind(kind)
	return &b, nil
}

// DefinitionsForActivity returns the bonus definitions on sale for an
// activity, cheapest first.
func (r *BonusRepo) DefinitionsForActivity(ctx context.Context, activityID uint64) ([]model.Bonus, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, activity_id, bonus_type, price_cents FROM bonuses
		 WHERE activity_id = ? ORDER BY price_cents, id`, activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Bonus, 0)
	for rows.Next() {
		var b model.Bonus
		var kind string
		if err := rows.Scan(&b.ID, &b.ActivityID, &kind, &b.PriceCents); err != nil {
			return nil, err
		}
		b.Kind = model.BonusKind(kind)
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListByUser returns every entitlement the user owns, newest purchase
// first, across all activities. Used by the "my bonuses" view.
func (r *BonusRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ProductBonus, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, bonus_id, activity_id, bonus_type, available,
		        date_begin, date_end, purchased_at, price_paid_cents
		 FROM product_bonuses
		 WHERE user_id = ?
		 ORDER BY purchased_at DESC, id DESC`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ProductBonus, 0)
	for rows.Next() {
		b, err := scanProductBonus(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

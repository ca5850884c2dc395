package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// BonusesForActivity returns all of the user's entitlements for the
// activity, newest purchase first. The engine applies the validity
// predicate; this query does not filter by date or availability.
func (q queries) BonusesForActivity(ctx context.Context, userID uuid.UUID, activityID uint64) ([]model.ProductBonus, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, user_id, bonus_id, activity_id, bonus_type, available,
		        date_begin, date_end, purchased_at, price_paid_cents
		 FROM product_bonuses
		 WHERE user_id = ? AND activity_id = ?
		 ORDER BY purchased_at DESC, id DESC`,
		userID.String(), activityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ProductBonus
	for rows.Next() {
		b, err := scanProductBonus(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CreateProductBonus inserts a purchased entitlement and populates
// its generated ID.
func (q queries) CreateProductBonus(ctx context.Context, b *model.ProductBonus) error {
	var begin, end interface{}
	if b.DateBegin != nil {
		begin = dateArg(*b.DateBegin)
	}
	if b.DateEnd != nil {
		end = dateArg(*b.DateEnd)
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO product_bonuses
		   (user_id, bonus_id, activity_id, bonus_type, available, date_begin, date_end, purchased_at, price_paid_cents)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.UserID.String(), b.BonusID, b.ActivityID, string(b.Kind), b.Available,
		begin, end, b.PurchasedAt.UTC().Format("2006-01-02 15:04:05"), b.PricePaidCents)
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

// SetBonusAvailability flips the single-use available flag. Used for
// consumption on booking and restoration on cancellation.
func (q queries) SetBonusAvailability(ctx context.Context, bonusID uint64, available bool) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE product_bonuses SET available = ? WHERE id = ?`, available, bonusID)
	return err
}

func scanProductBonus(scan func(dest ...interface{}) error) (*model.ProductBonus, error) {
	var (
		b       model.ProductBonus
		rawUser string
		kind    string
		begin   sql.NullTime
		end     sql.NullTime
	)
	err := scan(&b.ID, &rawUser, &b.BonusID, &b.ActivityID, &kind, &b.Available,
		&begin, &end, &b.PurchasedAt, &b.PricePaidCents)
	if err != nil {
		return nil, err
	}
	if b.UserID, err = uuid.Parse(rawUser); err != nil {
		return nil, err
	}
	b.Kind = model.BonusKind(kind)
	if begin.Valid {
		d := begin.Time.UTC()
		b.DateBegin = &d
	}
	if end.Valid {
		d := end.Time.UTC()
		b.DateEnd = &d
	}
	return &b, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

const waitingColumns = `id, user_id, session_id, join_date, notified_at`

// CreateWaitingEntry appends an entry to the session's queue and
// populates its generated ID. The auto-increment primary key doubles
// as the FIFO tiebreak for identical join dates, which keeps
// positions deterministic under concurrent joins.
func (q queries) CreateWaitingEntry(ctx context.Context, e *model.WaitingListEntry) error {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO waiting_list (user_id, session_id, join_date) VALUES (?, ?, ?)`,
		e.UserID.String(), e.SessionID, e.JoinDate.UTC().Format("2006-01-02 15:04:05.000000"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// DeleteWaitingEntry removes the user's entry for the session,
// reporting whether one existed.
func (q queries) DeleteWaitingEntry(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`DELETE FROM waiting_list WHERE user_id = ? AND session_id = ?`,
		userID.String(), sessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteWaitingEntryByID removes an entry by primary key.
func (q queries) DeleteWaitingEntryByID(ctx context.Context, id uint64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM waiting_list WHERE id = ?`, id)
	return err
}

// HasWaitingEntry reports whether the user is already queued for the
// session.
func (q queries) HasWaitingEntry(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx,
		`SELECT 1 FROM waiting_list WHERE user_id = ? AND session_id = ? LIMIT 1`,
		userID.String(), sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FirstUnnotified returns the FIFO head among entries that have not
// been offered a place yet, or nil when there is none.
func (q queries) FirstUnnotified(ctx context.Context, sessionID uint64) (*model.WaitingListEntry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+waitingColumns+` FROM waiting_list
		 WHERE session_id = ? AND notified_at IS NULL
		 ORDER BY join_date ASC, id ASC LIMIT 1`, sessionID)
	return scanWaitingEntry(row.Scan)
}

// CurrentNotified returns the live offered entry for the session, or
// nil when no offer is outstanding.
func (q queries) CurrentNotified(ctx context.Context, sessionID uint64) (*model.WaitingListEntry, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+waitingColumns+` FROM waiting_list
		 WHERE session_id = ? AND notified_at IS NOT NULL
		 ORDER BY notified_at ASC, id ASC LIMIT 1`, sessionID)
	return scanWaitingEntry(row.Scan)
}

// MarkNotified stamps the offer time on an entry.
func (q queries) MarkNotified(ctx context.Context, entryID uint64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE waiting_list SET notified_at = ? WHERE id = ?`,
		at.UTC().Format("2006-01-02 15:04:05.000000"), entryID)
	return err
}

// CountEarlierEntries counts entries ahead of the given one in FIFO
// order: strictly earlier join_date, or equal join_date with a lower
// primary key.
func (q queries) CountEarlierEntries(ctx context.Context, sessionID uint64, joinDate time.Time, beforeID uint64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM waiting_list
		 WHERE session_id = ? AND (join_date < ? OR (join_date = ? AND id < ?))`,
		sessionID, joinDate.UTC().Format("2006-01-02 15:04:05.000000"),
		joinDate.UTC().Format("2006-01-02 15:04:05.000000"), beforeID).Scan(&n)
	return n, err
}

func scanWaitingEntry(scan func(dest ...interface{}) error) (*model.WaitingListEntry, error) {
	var (
		e        model.WaitingListEntry
		rawUser  string
		notified sql.NullTime
	)
	err := scan(&e.ID, &rawUser, &e.SessionID, &e.JoinDate, &notified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if e.UserID, err = uuid.Parse(rawUser); err != nil {
		return nil, err
	}
	if notified.Valid {
		t := notified.Time.UTC()
		e.NotifiedAt = &t
	}
	return &e, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// WaitingListEntry is a FIFO ticket for a full session. Entries are
// ordered by JoinDate; ties break on insertion order (auto-increment
// ID), which keeps positions deterministic under concurrent joins.
// At most one entry per session carries a non-nil NotifiedAt at any
// time: the head of the currently offered chain.
//
// Fields:
//  ID         – primary key identifier (FIFO tiebreak).
//  UserID     – user waiting for a place.
//  SessionID  – full session being waited on.
//  JoinDate   – when the user joined the queue (ordering key).
//  NotifiedAt – when an offer was extended to this entry; nil until
//               then.
type WaitingListEntry struct {
	ID         uint64     // waiting_list.id
	UserID     uuid.UUID  // waiting_list.user_id
	SessionID  uint64     // waiting_list.session_id
	JoinDate   time.Time  // waiting_list.join_date
	NotifiedAt *time.Time // waiting_list.notified_at (nullable)
}

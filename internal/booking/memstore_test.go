package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mgarsanz/unisport/internal/model"
)

// memStore is an in-memory Store used by the engine tests. ExecTx
// serializes transactions on a mutex and rolls the data back when the
// closure fails, mirroring the commit/rollback contract of the MySQL
// store closely enough for behavioural tests.
type memStore struct {
	mu sync.Mutex
	memTx
}

func newMemStore() *memStore {
	return &memStore{memTx: memTx{
		sessions:     map[uint64]*model.Session{},
		reservations: map[uint64]*model.Reservation{},
	}}
}

func (m *memStore) ExecTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.memTx.clone()
	if err := fn(&m.memTx); err != nil {
		m.memTx = snap
		return err
	}
	return nil
}

// addSession seeds a session and returns its ID.
func (m *memStore) addSession(s model.Session) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	m.sessions[s.ID] = &s
	return s.ID
}

// addBonus seeds an entitlement and returns its ID.
func (m *memStore) addBonus(b model.ProductBonus) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	m.bonuses = append(m.bonuses, &b)
	return b.ID
}

func (m *memStore) session(id uint64) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.sessions[id]
}

func (m *memStore) bonus(id uint64) model.ProductBonus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bonuses {
		if b.ID == id {
			return *b
		}
	}
	panic("bonus not seeded")
}

func (m *memStore) reservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reservations)
}

func (m *memStore) waitingEntries(sessionID uint64) []model.WaitingListEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.WaitingListEntry
	for _, e := range m.waiting {
		if e.SessionID == sessionID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// memTx holds the mutable data and implements the Tx surface.
type memTx struct {
	sessions     map[uint64]*model.Session
	reservations map[uint64]*model.Reservation
	bonuses      []*model.ProductBonus
	waiting      []*model.WaitingListEntry
	nextID       uint64
}

func (t *memTx) clone() memTx {
	c := memTx{
		sessions:     make(map[uint64]*model.Session, len(t.sessions)),
		reservations: make(map[uint64]*model.Reservation, len(t.reservations)),
		nextID:       t.nextID,
	}
	for id, s := range t.sessions {
		cp := *s
		c.sessions[id] = &cp
	}
	for id, r := range t.reservations {
		cp := *r
		c.reservations[id] = &cp
	}
	for _, b := range t.bonuses {
		cp := *b
		if b.DateBegin != nil {
			d := *b.DateBegin
			cp.DateBegin = &d
		}
		if b.DateEnd != nil {
			d := *b.DateEnd
			cp.DateEnd = &d
		}
		c.bonuses = append(c.bonuses, &cp)
	}
	for _, e := range t.waiting {
		cp := *e
		if e.NotifiedAt != nil {
			at := *e.NotifiedAt
			cp.NotifiedAt = &at
		}
		c.waiting = append(c.waiting, &cp)
	}
	return c
}

func (t *memTx) id() uint64 {
	t.nextID++
	return t.nextID
}

func (t *memTx) SessionByID(ctx context.Context, id uint64) (*model.Session, error) {
	s, ok := t.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (t *memTx) FacilitySessionAt(ctx context.Context, facilityID uint64, date time.Time, start, end model.TimeOfDay) (*model.Session, error) {
	for _, s := range t.sessions {
		fid, ok := s.Target.FacilityID()
		if ok && fid == facilityID && sameDate(s.Date, date) && s.StartTime == start && s.EndTime == end {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) TryReserve(ctx context.Context, sessionID uint64) (bool, error) {
	s, ok := t.sessions[sessionID]
	if !ok {
		return false, ErrNotFound
	}
	if s.FreePlaces <= 0 {
		return false, nil
	}
	s.FreePlaces--
	return true, nil
}

func (t *memTx) Release(ctx context.Context, sessionID uint64) error {
	s, ok := t.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if s.FreePlaces < s.Capacity {
		s.FreePlaces++
	}
	return nil
}

func (t *memTx) CreateSessions(ctx context.Context, sessions []*model.Session) error {
	for _, s := range sessions {
		cp := *s
		cp.ID = t.id()
		s.ID = cp.ID
		t.sessions[cp.ID] = &cp
	}
	return nil
}

func (t *memTx) CreateReservation(ctx context.Context, r *model.Reservation) error {
	r.ID = t.id()
	r.CreatedAt = time.Now().UTC()
	cp := *r
	t.reservations[cp.ID] = &cp
	return nil
}

func (t *memTx) DeleteReservation(ctx context.Context, id uint64) error {
	delete(t.reservations, id)
	return nil
}

func (t *memTx) ReservationByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	r, ok := t.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) HasReservation(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error) {
	for _, r := range t.reservations {
		if r.UserID == userID && r.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) UserSlotsOn(ctx context.Context, userID uuid.UUID, date time.Time) ([]BookedSlot, error) {
	var out []BookedSlot
	for _, r := range t.reservations {
		if r.UserID != userID {
			continue
		}
		s := t.sessions[r.SessionID]
		if s == nil || !sameDate(s.Date, date) {
			continue
		}
		out = append(out, BookedSlot{SessionID: s.ID, Date: s.Date, Start: s.StartTime, End: s.EndTime})
	}
	return out, nil
}

func (t *memTx) BonusesForActivity(ctx context.Context, userID uuid.UUID, activityID uint64) ([]model.ProductBonus, error) {
	var out []model.ProductBonus
	for _, b := range t.bonuses {
		if b.UserID == userID && b.ActivityID == activityID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.After(out[j].PurchasedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (t *memTx) CreateProductBonus(ctx context.Context, b *model.ProductBonus) error {
	b.ID = t.id()
	cp := *b
	t.bonuses = append(t.bonuses, &cp)
	return nil
}

func (t *memTx) SetBonusAvailability(ctx context.Context, bonusID uint64, available bool) error {
	for _, b := range t.bonuses {
		if b.ID == bonusID {
			b.Available = available
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) CreateWaitingEntry(ctx context.Context, e *model.WaitingListEntry) error {
	e.ID = t.id()
	cp := *e
	t.waiting = append(t.waiting, &cp)
	return nil
}

func (t *memTx) DeleteWaitingEntry(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error) {
	for i, e := range t.waiting {
		if e.UserID == userID && e.SessionID == sessionID {
			t.waiting = append(t.waiting[:i], t.waiting[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) DeleteWaitingEntryByID(ctx context.Context, id uint64) error {
	for i, e := range t.waiting {
		if e.ID == id {
			t.waiting = append(t.waiting[:i], t.waiting[i+1:]...)
			return nil
		}
	}
	return nil
}

func (t *memTx) HasWaitingEntry(ctx context.Context, userID uuid.UUID, sessionID uint64) (bool, error) {
	for _, e := range t.waiting {
		if e.UserID == userID && e.SessionID == sessionID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) FirstUnnotified(ctx context.Context, sessionID uint64) (*model.WaitingListEntry, error) {
	var head *model.WaitingListEntry
	for _, e := range t.waiting {
		if e.SessionID != sessionID || e.NotifiedAt != nil {
			continue
		}
		if head == nil || e.JoinDate.Before(head.JoinDate) ||
			(e.JoinDate.Equal(head.JoinDate) && e.ID < head.ID) {
			head = e
		}
	}
	if head == nil {
		return nil, nil
	}
	cp := *head
	return &cp, nil
}

func (t *memTx) CurrentNotified(ctx context.Context, sessionID uint64) (*model.WaitingListEntry, error) {
	var cur *model.WaitingListEntry
	for _, e := range t.waiting {
		if e.SessionID != sessionID || e.NotifiedAt == nil {
			continue
		}
		if cur == nil || e.NotifiedAt.Before(*cur.NotifiedAt) ||
			(e.NotifiedAt.Equal(*cur.NotifiedAt) && e.ID < cur.ID) {
			cur = e
		}
	}
	if cur == nil {
		return nil, nil
	}
	cp := *cur
	at := *cur.NotifiedAt
	cp.NotifiedAt = &at
	return &cp, nil
}

func (t *memTx) MarkNotified(ctx context.Context, entryID uint64, at time.Time) error {
	for _, e := range t.waiting {
		if e.ID == entryID {
			stamp := at
			e.NotifiedAt = &stamp
			return nil
		}
	}
	return ErrNotFound
}

func (t *memTx) CountEarlierEntries(ctx context.Context, sessionID uint64, joinDate time.Time, beforeID uint64) (int, error) {
	n := 0
	for _, e := range t.waiting {
		if e.SessionID != sessionID {
			continue
		}
		if e.JoinDate.Before(joinDate) || (e.JoinDate.Equal(joinDate) && e.ID < beforeID) {
			n++
		}
	}
	return n, nil
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []sentNote
}

type sentNote struct {
	userID uuid.UUID
	title  string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, content string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, sentNote{userID: userID, title: title})
}

func (n *recordingNotifier) sent() []sentNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNote(nil), n.notes...)
}

func (n *recordingNotifier) titlesFor(userID uuid.UUID) []string {
	var out []string
	for _, s := range n.sent() {
		if s.userID == userID {
			out = append(out, s.title)
		}
	}
	return out
}

// fakeScheduler records timeout checks instead of touching a broker.
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []uint64
}

func (f *fakeScheduler) Schedule(ctx context.Context, sessionID uint64, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, sessionID)
	return nil
}

func (f *fakeScheduler) calls() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.scheduled...)
}

// newTestService wires the engine with the in-memory collaborators and
// a 10-minute offer window.
func newTestService() (*Service, *memStore, *recordingNotifier, *fakeScheduler) {
	store := newMemStore()
	notifier := &recordingNotifier{}
	sched := &fakeScheduler{}
	svc := NewService(store, notifier, sched, 10*time.Minute)
	return svc, store, notifier, sched
}

// utcDate is a test shorthand for a UTC midnight date.
func utcDate(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// Package memory keeps rooms and reservations in process memory. It backs the
// tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lobby_lobster/internal/domain"
)

type Store struct {
	// txMu serialises units of work; mu guards the maps.
	txMu sync.Mutex
	mu   sync.RWMutex

	rooms     map[string]domain.Room
	roomOrder []string
	res       map[string]domain.Reservation
	resOrder  []string
}

func New() *Store {
	return &Store{
		rooms: make(map[string]domain.Room),
		res:   make(map[string]domain.Reservation),
	}
}

// WithinTx runs fn while holding the store-wide transaction lock. Writes are
// applied immediately; a failing fn does not roll them back, so callers keep
// validation ahead of their first write.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, s)
}

// ---- rooms ----

func (s *Store) GetRoom(_ context.Context, id string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrNotFound
	}
	return r, nil
}

func (s *Store) LockRoom(ctx context.Context, id string) (domain.Room, error) {
	return s.GetRoom(ctx, id)
}

func (s *Store) FindRoomByNumber(_ context.Context, number string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.roomOrder {
		if s.rooms[id].Number == number {
			return s.rooms[id], nil
		}
	}
	return domain.Room{}, domain.ErrNotFound
}

func (s *Store) ListRooms(_ context.Context, pg domain.PageQuery) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Room, 0, len(s.roomOrder))
	for _, id := range s.roomOrder {
		out = append(out, s.rooms[id])
	}
	return page(out, pg.Offset, pg.Limit), nil
}

func (s *Store) CreateRoom(_ context.Context, r domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.roomOrder {
		if s.rooms[id].Number == r.Number {
			return domain.ErrDuplicateKey
		}
	}
	s.rooms[r.ID] = r
	s.roomOrder = append(s.roomOrder, r.ID)
	return nil
}

func (s *Store) UpdateRoom(_ context.Context, r domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.ID]; !ok {
		return domain.ErrNotFound
	}
	s.rooms[r.ID] = r
	return nil
}

func (s *Store) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.rooms, id)
	s.roomOrder = without(s.roomOrder, id)
	return nil
}

// ---- reservations ----

func (s *Store) GetReservation(_ context.Context, id string) (domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.res[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}

// LockReservation relies on txMu, which already serialises units of work.
func (s *Store) LockReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return s.GetReservation(ctx, id)
}

func (s *Store) FindReservations(_ context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reservation
	for _, id := range s.resOrder {
		r := s.res[id]
		if matches(r, f) {
			out = append(out, r)
		}
	}
	return page(out, f.Offset, f.Limit), nil
}

func matches(r domain.Reservation, f domain.ReservationFilter) bool {
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.ExcludeID != "" && r.ID == f.ExcludeID {
		return false
	}
	if f.GuestKey != "" && r.GuestKey() != f.GuestKey {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if r.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o := f.Overlapping; o != nil && !domain.Overlaps(r.CheckIn, r.CheckOut, o.From, o.To) {
		return false
	}
	return true
}

func (s *Store) ListReservationViews(_ context.Context, order domain.ReservationOrder) ([]domain.ReservationView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.viewsLocked(func(domain.Reservation) bool { return true })
	switch order {
	case domain.OrderCreatedDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CheckIn.After(out[j].CheckIn) })
	}
	return out, nil
}

func (s *Store) CalendarReservations(_ context.Context, start, end time.Time) ([]domain.ReservationView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewsLocked(func(r domain.Reservation) bool {
		return r.Status.Occupying() && domain.IntersectsWindow(r.CheckIn, r.CheckOut, start, end)
	}), nil
}

func (s *Store) viewsLocked(keep func(domain.Reservation) bool) []domain.ReservationView {
	out := []domain.ReservationView{}
	for _, id := range s.resOrder {
		r := s.res[id]
		if !keep(r) {
			continue
		}
		room := s.rooms[r.RoomID]
		out = append(out, domain.ReservationView{Reservation: r, RoomNumber: room.Number, RoomName: room.Name})
	}
	return out
}

func (s *Store) CreateReservation(_ context.Context, r domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[r.RoomID]; !ok {
		return domain.ErrNotFound
	}
	s.res[r.ID] = r
	s.resOrder = append(s.resOrder, r.ID)
	return nil
}

func (s *Store) UpdateReservation(_ context.Context, r domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.res[r.ID]; !ok {
		return domain.ErrNotFound
	}
	s.res[r.ID] = r
	return nil
}

func (s *Store) DeleteReservation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.res[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.res, id)
	s.resOrder = without(s.resOrder, id)
	return nil
}

func (s *Store) DeleteReservationsForRoom(_ context.Context, roomID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	kept := s.resOrder[:0]
	for _, id := range s.resOrder {
		if s.res[id].RoomID == roomID {
			delete(s.res, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	s.resOrder = kept
	return n, nil
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

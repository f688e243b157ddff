package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lobby_lobster/internal/domain"
)

// RoomService manages room inventory. Single-room reads go through the cache
// when one is configured; writes evict.
type RoomService struct {
	store    domain.Store
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
	newID    func() string
}

func NewRoomService(s domain.Store, c domain.Cache, ttl time.Duration) *RoomService {
	return &RoomService{
		store:    s,
		cache:    c,
		cacheTTL: ttl,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func roomKey(id string) string { return fmt.Sprintf("room:%s", id) }

func (s *RoomService) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	key := roomKey(id)
	var rm domain.Room
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &rm); ok {
			return rm, nil
		}
	}
	rm, err := s.store.GetRoom(ctx, id)
	if err != nil {
		return domain.Room{}, roomErr(id, err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, rm, int(s.cacheTTL.Seconds()))
	}
	return rm, nil
}

func (s *RoomService) ListRooms(ctx context.Context, pg domain.PageQuery) ([]domain.Room, error) {
	if pg.Limit <= 0 {
		pg.Limit = defaultPageLimit
	}
	return s.store.ListRooms(ctx, pg)
}

func (s *RoomService) CreateRoom(ctx context.Context, in domain.Room) (domain.Room, error) {
	rm := in
	rm.ID = s.newID()
	now := s.now()
	rm.CreatedAt, rm.UpdatedAt = now, now
	if err := rm.Validate(); err != nil {
		return domain.Room{}, err
	}
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := numberFree(ctx, tx, rm.Number); err != nil {
			return err
		}
		return tx.CreateRoom(ctx, rm)
	})
	if err != nil {
		return domain.Room{}, err
	}
	log.Info().Str("id", rm.ID).Str("number", rm.Number).Msg("room created")
	return rm, nil
}

func (s *RoomService) UpdateRoom(ctx context.Context, id string, p domain.RoomPatch) (domain.Room, error) {
	var out domain.Room
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		cur, err := tx.LockRoom(ctx, id)
		if err != nil {
			return roomErr(id, err)
		}
		next := p.Apply(cur)
		next.UpdatedAt = s.now()
		if err := next.Validate(); err != nil {
			return err
		}
		if next.Number != cur.Number {
			if err := numberFree(ctx, tx, next.Number); err != nil {
				return err
			}
		}
		if err := tx.UpdateRoom(ctx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	s.evict(ctx, id)
	return out, nil
}

// DeleteRoom removes the room and every reservation it owns. It returns the
// number of reservations removed with it.
func (s *RoomService) DeleteRoom(ctx context.Context, id string) (int, error) {
	var removed int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.LockRoom(ctx, id); err != nil {
			return roomErr(id, err)
		}
		n, err := tx.DeleteReservationsForRoom(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return tx.DeleteRoom(ctx, id)
	})
	if err != nil {
		return 0, err
	}
	s.evict(ctx, id)
	log.Info().Str("id", id).Int("reservations", removed).Msg("room deleted")
	return removed, nil
}

func (s *RoomService) evict(ctx context.Context, id string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, roomKey(id))
	}
}

func numberFree(ctx context.Context, tx domain.Store, number string) error {
	_, err := tx.FindRoomByNumber(ctx, number)
	switch {
	case err == nil:
		return fmt.Errorf("%w: room number %s already exists", domain.ErrDuplicateKey, number)
	case errors.Is(err, domain.ErrNotFound):
		return nil
	default:
		return err
	}
}

func roomErr(id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: room with id %s", domain.ErrNotFound, id)
	}
	return err
}

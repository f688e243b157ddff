package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lobby_lobster/internal/domain"
)

const defaultPageLimit = 100

// ReservationService owns the reservation lifecycle: booking, amendment,
// cancellation and the list/calendar reads. Every write runs its
// check-and-write sequence inside one store transaction.
type ReservationService struct {
	store domain.Store
	now   func() time.Time
	newID func() string
}

func NewReservationService(s domain.Store) *ReservationService {
	return &ReservationService{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Create books a room. ID, timestamps and total_price (when a nightly rate is
// given) are filled in here; Status defaults to CONFIRMED.
func (s *ReservationService) Create(ctx context.Context, in domain.Reservation) (domain.Reservation, error) {
	r := in
	r.ID = s.newID()
	r.CheckIn, r.CheckOut = domain.Day(in.CheckIn), domain.Day(in.CheckOut)
	if r.Status == "" {
		r.Status = domain.StatusConfirmed
	}
	if r.PricePerNight != nil {
		r.TotalPrice = domain.TotalFor(*r.PricePerNight, r.CheckIn, r.CheckOut)
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now
	if err := r.Validate(); err != nil {
		return domain.Reservation{}, err
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		room, err := lockRoom(ctx, tx, r.RoomID)
		if err != nil {
			return err
		}
		ok, err := NewAvailabilityService(tx).IsAvailable(ctx, r.RoomID, r.CheckIn, r.CheckOut, "")
		if err != nil {
			return err
		}
		if !ok {
			return unavailable(room)
		}
		return tx.CreateReservation(ctx, r)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	log.Info().Str("id", r.ID).Str("room_id", r.RoomID).Time("check_in", r.CheckIn).Time("check_out", r.CheckOut).Msg("reservation created")
	return r, nil
}

// Update applies the fields present in p. Moving the booking in room or time,
// or re-activating a cancelled/checked-out one, re-runs availability with the
// reservation itself excluded.
func (s *ReservationService) Update(ctx context.Context, id string, p domain.ReservationPatch) (domain.Reservation, error) {
	if p.Guest.Name != nil && strings.TrimSpace(*p.Guest.Name) == "" {
		return domain.Reservation{}, fmt.Errorf("%w: guest name is required", domain.ErrValidation)
	}

	var out domain.Reservation
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		cur, err := tx.LockReservation(ctx, id)
		if err != nil {
			return reservationErr(id, err)
		}
		next := p.Apply(cur)
		next.UpdatedAt = s.now()
		if err := next.Validate(); err != nil {
			return err
		}

		reactivated := !cur.Status.Occupying() && next.Status.Occupying()
		if p.TouchesSchedule() || reactivated {
			room, err := lockRoom(ctx, tx, next.RoomID)
			if err != nil {
				return err
			}
			ok, err := NewAvailabilityService(tx).IsAvailable(ctx, next.RoomID, next.CheckIn, next.CheckOut, id)
			if err != nil {
				return err
			}
			if !ok {
				return unavailable(room)
			}
		}
		if err := tx.UpdateReservation(ctx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	log.Info().Str("id", id).Str("status", string(out.Status)).Msg("reservation updated")
	return out, nil
}

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteReservation(ctx, id); err != nil {
		return reservationErr(id, err)
	}
	log.Info().Str("id", id).Msg("reservation deleted")
	return nil
}

// Get is the read accessor used by invoice rendering.
func (s *ReservationService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return domain.Reservation{}, reservationErr(id, err)
	}
	return r, nil
}

type ListQuery struct {
	RoomID string
	Status *domain.Status
	domain.PageQuery
}

func (s *ReservationService) List(ctx context.Context, q ListQuery) ([]domain.Reservation, error) {
	f := domain.ReservationFilter{RoomID: q.RoomID, Offset: q.Offset, Limit: q.Limit}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if q.Status != nil {
		if !q.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, *q.Status)
		}
		f.Statuses = []domain.Status{*q.Status}
	}
	return s.store.FindReservations(ctx, f)
}

// Calendar lists occupying reservations touching the closed window
// [start, end], both ends inclusive.
func (s *ReservationService) Calendar(ctx context.Context, start, end time.Time) ([]domain.ReservationView, error) {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	return s.store.CalendarReservations(ctx, start, end)
}

func lockRoom(ctx context.Context, tx domain.Store, roomID string) (domain.Room, error) {
	room, err := tx.LockRoom(ctx, roomID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Room{}, fmt.Errorf("%w: room with id %s", domain.ErrNotFound, roomID)
	}
	return room, err
}

func unavailable(room domain.Room) error {
	log.Warn().Str("room", room.Number).Msg("booking conflict")
	return fmt.Errorf("%w: room %s is not available for the selected dates", domain.ErrConflict, room.Number)
}

func reservationErr(id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: reservation with id %s", domain.ErrNotFound, id)
	}
	return err
}

package domain

import (
	"context"
	"time"
)

// RoomDirectory resolves and maintains rooms. Lookups return ErrNotFound for
// unknown ids.
type RoomDirectory interface {
	GetRoom(ctx context.Context, id string) (Room, error)
	// LockRoom is GetRoom that also holds the room against concurrent
	// bookings until the surrounding transaction ends.
	LockRoom(ctx context.Context, id string) (Room, error)
	FindRoomByNumber(ctx context.Context, number string) (Room, error)
	ListRooms(ctx context.Context, pg PageQuery) ([]Room, error)
	CreateRoom(ctx context.Context, r Room) error
	UpdateRoom(ctx context.Context, r Room) error
	DeleteRoom(ctx context.Context, id string) error
}

type ReservationStore interface {
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// LockReservation reads the latest committed row and holds it against
	// concurrent amendments until the surrounding transaction ends.
	LockReservation(ctx context.Context, id string) (Reservation, error)
	FindReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error)
	// ListReservationViews returns every reservation joined with its room.
	ListReservationViews(ctx context.Context, order ReservationOrder) ([]ReservationView, error)
	// CalendarReservations returns occupying reservations intersecting the
	// closed window [start, end].
	CalendarReservations(ctx context.Context, start, end time.Time) ([]ReservationView, error)
	CreateReservation(ctx context.Context, r Reservation) error
	UpdateReservation(ctx context.Context, r Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	DeleteReservationsForRoom(ctx context.Context, roomID string) (int, error)
}

type Store interface {
	RoomDirectory
	ReservationStore
	// WithinTx runs fn as one unit of work. Implementations must serialise
	// check-and-write sequences on the same room taken via LockRoom.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type PageQuery struct {
	Offset int
	Limit  int
}

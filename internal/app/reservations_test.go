package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobby_lobster/internal/app"
	"lobby_lobster/internal/domain"
	"lobby_lobster/internal/storage/memory"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	store *memory.Store
	rooms *app.RoomService
	res   *app.ReservationService
	guest *app.GuestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	return &fixture{
		store: s,
		rooms: app.NewRoomService(s, nil, 0),
		res:   app.NewReservationService(s),
		guest: app.NewGuestService(s),
	}
}

func (f *fixture) room(t *testing.T, number string) domain.Room {
	t.Helper()
	rm, err := f.rooms.CreateRoom(context.Background(), domain.Room{Number: number, Name: "Room " + number, Type: domain.RoomDouble, Capacity: 2})
	require.NoError(t, err)
	return rm
}

func (f *fixture) book(t *testing.T, roomID, guest, in, out string) domain.Reservation {
	t.Helper()
	r, err := f.res.Create(context.Background(), domain.Reservation{
		RoomID: roomID, Guest: domain.Guest{Name: guest}, CheckIn: d(in), CheckOut: d(out),
	})
	require.NoError(t, err)
	return r
}

func TestCreate_DefaultsAndPricing(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")

	r, err := f.res.Create(context.Background(), domain.Reservation{
		RoomID:        rm.ID,
		Guest:         domain.Guest{Name: "Ada"},
		CheckIn:       d("2024-06-01"),
		CheckOut:      d("2024-06-04"),
		PricePerNight: ptr(80.0),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, domain.StatusConfirmed, r.Status)
	require.NotNil(t, r.TotalPrice)
	assert.Equal(t, 240.0, *r.TotalPrice)
	assert.False(t, r.CreatedAt.IsZero())

	stored, err := f.res.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, stored)
}

func TestCreate_Conflict(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")

	_, err := f.res.Create(context.Background(), domain.Reservation{
		RoomID: rm.ID, Guest: domain.Guest{Name: "Bob"}, CheckIn: d("2024-06-04"), CheckOut: d("2024-06-07"),
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "room 101")

	// other rooms are independent
	other := f.room(t, "102")
	f.book(t, other.ID, "Bob", "2024-06-04", "2024-06-07")
}

func TestCreate_TouchingStaysDoNotConflict(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")
	f.book(t, rm.ID, "Bob", "2024-06-05", "2024-06-07")
	f.book(t, rm.ID, "Cy", "2024-05-28", "2024-06-01")
}

func TestCreate_NonOccupyingDoNotBlock(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	for _, st := range []domain.Status{domain.StatusCancelled, domain.StatusCheckedOut} {
		_, err := f.res.Create(context.Background(), domain.Reservation{
			RoomID: rm.ID, Guest: domain.Guest{Name: "Old"}, CheckIn: d("2024-06-01"), CheckOut: d("2024-06-05"), Status: st,
		})
		require.NoError(t, err)
	}
	f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")
}

func TestCreate_ValidationBeforeStore(t *testing.T) {
	f := newFixture(t)
	cases := map[string]domain.Reservation{
		"checkout not after checkin": {RoomID: "r", Guest: domain.Guest{Name: "A"}, CheckIn: d("2024-06-05"), CheckOut: d("2024-06-05")},
		"missing guest":              {RoomID: "r", CheckIn: d("2024-06-01"), CheckOut: d("2024-06-05")},
		"bad status":                 {RoomID: "r", Guest: domain.Guest{Name: "A"}, CheckIn: d("2024-06-01"), CheckOut: d("2024-06-05"), Status: "LOST"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.res.Create(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreate_UnknownRoom(t *testing.T) {
	f := newFixture(t)
	_, err := f.res.Create(context.Background(), domain.Reservation{
		RoomID: "ghost", Guest: domain.Guest{Name: "A"}, CheckIn: d("2024-06-01"), CheckOut: d("2024-06-02"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_ConcurrentBookingsOneWins(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.res.Create(context.Background(), domain.Reservation{
				RoomID: rm.ID, Guest: domain.Guest{Name: "Racer"}, CheckIn: d("2024-06-01"), CheckOut: d("2024-06-03"),
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
}

func TestUpdate_ExcludesSelf(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r := f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")

	got, err := f.res.Update(context.Background(), r.ID, domain.ReservationPatch{CheckIn: ptr(d("2024-06-02")), CheckOut: ptr(d("2024-06-06"))})
	require.NoError(t, err)
	assert.Equal(t, d("2024-06-02"), got.CheckIn)
	assert.Equal(t, 4, got.Nights())
}

func TestUpdate_MoveIntoOccupiedRoomConflicts(t *testing.T) {
	f := newFixture(t)
	a, b := f.room(t, "101"), f.room(t, "102")
	f.book(t, a.ID, "Ada", "2024-06-01", "2024-06-05")
	r := f.book(t, b.ID, "Bob", "2024-06-02", "2024-06-03")

	_, err := f.res.Update(context.Background(), r.ID, domain.ReservationPatch{RoomID: ptr(a.ID)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	cur, err := f.res.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, cur.RoomID, "failed update leaves the booking untouched")
}

func TestUpdate_ReactivationIsRechecked(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r := f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")

	_, err := f.res.Update(context.Background(), r.ID, domain.ReservationPatch{Status: ptr(domain.StatusCheckedOut)})
	require.NoError(t, err)
	f.book(t, rm.ID, "Bob", "2024-06-02", "2024-06-04")

	_, err = f.res.Update(context.Background(), r.ID, domain.ReservationPatch{Status: ptr(domain.StatusConfirmed)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// any transition is allowed when the dates are free
	_, err = f.res.Update(context.Background(), r.ID, domain.ReservationPatch{
		Status: ptr(domain.StatusConfirmed), CheckIn: ptr(d("2024-07-01")), CheckOut: ptr(d("2024-07-03")),
	})
	assert.NoError(t, err)
}

func TestUpdate_NonScheduleFieldsSkipAvailability(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r := f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")

	got, err := f.res.Update(context.Background(), r.ID, domain.ReservationPatch{Notes: ptr("late arrival"), Status: ptr(domain.StatusCheckedIn)})
	require.NoError(t, err)
	assert.Equal(t, "late arrival", *got.Notes)
	assert.Equal(t, domain.StatusCheckedIn, got.Status)
}

func TestUpdate_Pricing(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r, err := f.res.Create(context.Background(), domain.Reservation{
		RoomID: rm.ID, Guest: domain.Guest{Name: "Ada"}, CheckIn: d("2024-06-01"), CheckOut: d("2024-06-03"), PricePerNight: ptr(100.0),
	})
	require.NoError(t, err)

	got, err := f.res.Update(context.Background(), r.ID, domain.ReservationPatch{CheckOut: ptr(d("2024-06-05"))})
	require.NoError(t, err)
	assert.Equal(t, 400.0, *got.TotalPrice)

	got, err = f.res.Update(context.Background(), r.ID, domain.ReservationPatch{PricePerNight: ptr(90.0), TotalPrice: ptr(300.0)})
	require.NoError(t, err)
	assert.Equal(t, 300.0, *got.TotalPrice)
}

func TestUpdate_OverrideSurvivesResubmittedForm(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r, err := f.res.Create(context.Background(), domain.Reservation{
		RoomID: rm.ID, Guest: domain.Guest{Name: "Ada"}, CheckIn: d("2024-06-01"), CheckOut: d("2024-06-04"), PricePerNight: ptr(100.0),
	})
	require.NoError(t, err)
	require.Equal(t, 300.0, *r.TotalPrice)

	_, err = f.res.Update(context.Background(), r.ID, domain.ReservationPatch{TotalPrice: ptr(250.0)})
	require.NoError(t, err)

	got, err := f.res.Update(context.Background(), r.ID, domain.ReservationPatch{
		CheckIn:       ptr(d("2024-06-01")),
		CheckOut:      ptr(d("2024-06-04")),
		PricePerNight: ptr(100.0),
		Notes:         ptr("late arrival"),
	})
	require.NoError(t, err)
	assert.Equal(t, 250.0, *got.TotalPrice)
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r := f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")

	_, err := f.res.Update(context.Background(), r.ID, domain.ReservationPatch{CheckOut: ptr(d("2024-05-30"))})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.res.Update(context.Background(), r.ID, domain.ReservationPatch{Guest: domain.GuestPatch{Name: ptr("  ")}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.res.Update(context.Background(), "ghost", domain.ReservationPatch{Notes: ptr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteFreesTheRoom(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r := f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")

	require.NoError(t, f.res.Delete(context.Background(), r.ID))
	assert.ErrorIs(t, f.res.Delete(context.Background(), r.ID), domain.ErrNotFound)
	f.book(t, rm.ID, "Bob", "2024-06-01", "2024-06-05")
}

func TestCalendar(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	f.book(t, rm.ID, "Before", "2024-05-20", "2024-05-31")
	f.book(t, rm.ID, "EndsOnStart", "2024-05-31", "2024-06-01")
	f.book(t, rm.ID, "StartsOnEnd", "2024-06-30", "2024-07-02")
	f.book(t, rm.ID, "After", "2024-07-02", "2024-07-05")

	got, err := f.res.Calendar(context.Background(), d("2024-06-01"), d("2024-06-30"))
	require.NoError(t, err)
	var names []string
	for _, v := range got {
		names = append(names, v.Guest.Name)
		assert.Equal(t, "101", v.RoomNumber)
	}
	assert.ElementsMatch(t, []string{"EndsOnStart", "StartsOnEnd"}, names)

	_, err = f.res.Calendar(context.Background(), d("2024-06-30"), d("2024-06-01"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestIsAvailable(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r := f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-05")
	av := app.NewAvailabilityService(f.store)

	cases := []struct {
		name    string
		in, out string
		exclude string
		want    bool
	}{
		{"overlap", "2024-06-04", "2024-06-07", "", false},
		{"inside", "2024-06-02", "2024-06-03", "", false},
		{"covering", "2024-05-30", "2024-06-08", "", false},
		{"touch after", "2024-06-05", "2024-06-07", "", true},
		{"touch before", "2024-05-29", "2024-06-01", "", true},
		{"excluding self", "2024-06-02", "2024-06-06", r.ID, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := av.IsAvailable(context.Background(), rm.ID, d(tc.in), d(tc.out), tc.exclude)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestList_FilterAndDefaultLimit(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-02")
	f.book(t, rm.ID, "Bob", "2024-06-02", "2024-06-03")

	all, err := f.res.List(context.Background(), app.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.res.List(context.Background(), app.ListQuery{Status: ptr(domain.Status("NOPE"))})
	assert.ErrorIs(t, err, domain.ErrValidation)

	paged, err := f.res.List(context.Background(), app.ListQuery{PageQuery: domain.PageQuery{Offset: 1, Limit: 5}})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "Bob", paged[0].Guest.Name)
}

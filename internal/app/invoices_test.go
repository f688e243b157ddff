package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobby_lobster/internal/app"
	"lobby_lobster/internal/domain"
)

func TestBuildInvoice(t *testing.T) {
	room := domain.Room{Number: "204"}
	r := domain.Reservation{
		CheckIn: d("2024-06-01"), CheckOut: d("2024-06-04"),
		PricePerNight: ptr(120.0), BreakfastIncluded: true,
		PaymentMethod: ptr(domain.PaymentInvoice),
	}

	inv := app.BuildInvoice(r, room)
	assert.Equal(t, 3, inv.Nights)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "Room 204", inv.Lines[0].Description)
	assert.Equal(t, 360.0, inv.Lines[0].Amount)
	assert.Equal(t, 0.0, inv.Lines[1].Amount)
	assert.Equal(t, 360.0, inv.Total)
	assert.Equal(t, domain.PaymentInvoice, *inv.PaymentMethod)

	r.TotalPrice = ptr(300.0)
	r.BreakfastIncluded = false
	inv = app.BuildInvoice(r, room)
	assert.Len(t, inv.Lines, 1)
	assert.Equal(t, 300.0, inv.Total, "negotiated total wins")
}

func TestInvoiceService(t *testing.T) {
	f := newFixture(t)
	rm := f.room(t, "101")
	r := f.book(t, rm.ID, "Ada", "2024-06-01", "2024-06-02")
	svc := app.NewInvoiceService(f.res, f.rooms)

	inv, err := svc.Invoice(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, "101", inv.Room.Number)
	assert.Equal(t, 0.0, inv.Total)

	_, err = svc.Invoice(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

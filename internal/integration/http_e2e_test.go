//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	server "lobby_lobster/internal/adapters/http_server"
	"lobby_lobster/internal/adapters/observability"
	"lobby_lobster/internal/app"
	mysqlrepo "lobby_lobster/internal/storage/mysql"
	"lobby_lobster/internal/storage/mysql/mysqltest"
)

// ---------- helpers ----------
func post(t *testing.T, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	return send(t, http.MethodPost, url, body)
}

func send(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

// ---------- the test ----------
func TestHTTP_EndToEnd_BookingOnMySQL(t *testing.T) {
	db := mysqltest.Start(t)
	repo := mysqlrepo.New(db)

	rooms := app.NewRoomService(repo, nil, 0)
	reservations := app.NewReservationService(repo)
	srv := server.New(server.Options{})
	srv.Mount("/metrics", observability.MetricsHandler(observability.InitRegistry()))
	srv.MountHandlers(&server.Handlers{
		Rooms:        rooms,
		Reservations: reservations,
		Guests:       app.NewGuestService(repo),
		Invoices:     app.NewInvoiceService(reservations, rooms),
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	res, room := post(t, ts.URL+"/api/rooms", map[string]any{
		"number": "301", "name": "Harbour Suite", "room_type": "SUITE", "capacity": 4, "floor": 3,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create room status %d: %v", res.StatusCode, room)
	}
	roomID := room["id"].(string)

	res, first := post(t, ts.URL+"/api/reservations", map[string]any{
		"room_id": roomID, "guest_name": "Ada Lovelace", "check_in": "2024-06-01", "check_out": "2024-06-05",
		"price_per_night": 150, "breakfast_included": true, "payment_method": "INVOICE", "guest_company": "Analytical Ltd",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create reservation status %d: %v", res.StatusCode, first)
	}
	if first["total_price"] != 600.0 || first["check_out"] != "2024-06-05" {
		t.Fatalf("unexpected reservation: %v", first)
	}

	res, prob := post(t, ts.URL+"/api/reservations", map[string]any{
		"room_id": roomID, "guest_name": "Grace Hopper", "check_in": "2024-06-03", "check_out": "2024-06-04",
	})
	if res.StatusCode != http.StatusConflict || !strings.Contains(fmt.Sprint(prob["detail"]), "room 301") {
		t.Fatalf("expected conflict naming room 301, got %d %v", res.StatusCode, prob)
	}

	res, _ = post(t, ts.URL+"/api/reservations", map[string]any{
		"room_id": roomID, "guest_name": "ada lovelace", "check_in": "2024-06-05", "check_out": "2024-06-06",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("back-to-back booking status %d", res.StatusCode)
	}

	res, upd := send(t, http.MethodPut, ts.URL+"/api/guests/Ada%20Lovelace", map[string]any{"guest_email": "ada@example.com"})
	if res.StatusCode != http.StatusOK || upd["updated_count"] != 2.0 {
		t.Fatalf("guest update: %d %v", res.StatusCode, upd)
	}

	res, inv := send(t, http.MethodGet, ts.URL+"/api/invoices/"+first["id"].(string), nil)
	if res.StatusCode != http.StatusOK || inv["total"] != 600.0 {
		t.Fatalf("invoice: %d %v", res.StatusCode, inv)
	}

	res, del := send(t, http.MethodDelete, ts.URL+"/api/rooms/"+roomID, nil)
	if res.StatusCode != http.StatusOK || del["reservations_deleted"] != 2.0 {
		t.Fatalf("room delete: %d %v", res.StatusCode, del)
	}
}

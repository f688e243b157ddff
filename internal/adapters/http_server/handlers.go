package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lobby_lobster/internal/adapters/observability"
	"lobby_lobster/internal/app"
	"lobby_lobster/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Rooms        *app.RoomService
	Reservations *app.ReservationService
	Guests       *app.GuestService
	Invoices     *app.InvoiceService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"})
	})

	s.mux.Route("/api", func(api chi.Router) {
		api.Route("/rooms", func(rt chi.Router) {
			rt.Get("/", h.listRooms)
			rt.Post("/", h.createRoom)
			rt.Get("/{id}", h.getRoom)
			rt.Put("/{id}", h.updateRoom)
			rt.Delete("/{id}", h.deleteRoom)
		})
		api.Route("/reservations", func(rt chi.Router) {
			rt.Get("/", h.listReservations)
			rt.Post("/", h.createReservation)
			rt.Get("/calendar", h.calendar)
			rt.Get("/search-guests", h.searchGuests)
			rt.Get("/{id}", h.getReservation)
			rt.Put("/{id}", h.updateReservation)
			rt.Delete("/{id}", h.deleteReservation)
		})
		api.Get("/guests", h.listGuests)
		api.Put("/guests/{name}", h.updateGuest)
		api.Get("/invoices/{id}", h.getInvoice)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP statuses. Anything
// outside it is a 500 and is logged; the detail stays generic.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	case errors.Is(err, domain.ErrDuplicateKey):
		writeProblem(w, http.StatusBadRequest, "Duplicate", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON sends v with a weak ETag. GETs carrying a matching If-None-Match
// get a bodyless 304.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response encoding failed")
		return
	}
	if r.Method == http.MethodGet && etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

// page reads skip/limit. Limit is capped at 500.
func page(w http.ResponseWriter, r *http.Request) (domain.PageQuery, bool) {
	var pg domain.PageQuery
	q := r.URL.Query()
	if s := q.Get("skip"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid skip", "skip must be a non-negative integer")
			return pg, false
		}
		pg.Offset = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return pg, false
		}
		pg.Limit = n
	}
	return pg, true
}

func queryDate(w http.ResponseWriter, r *http.Request, key string) (time.Time, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		writeProblem(w, http.StatusBadRequest, "Missing "+key, key+" is required (YYYY-MM-DD)")
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid "+key, key+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	pg, ok := page(w, r)
	if !ok {
		return
	}
	rooms, err := h.Rooms.ListRooms(r.Context(), pg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rooms)
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Rooms.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, room)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if !decode(w, r, &req) {
		return
	}
	room, err := h.Rooms.CreateRoom(r.Context(), req.patch().Apply(domain.Room{}))
	observability.ObserveBooking("create_room", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, room)
}

func (h *Handlers) updateRoom(w http.ResponseWriter, r *http.Request) {
	var req roomRequest
	if !decode(w, r, &req) {
		return
	}
	room, err := h.Rooms.UpdateRoom(r.Context(), chi.URLParam(r, "id"), req.patch())
	observability.ObserveBooking("update_room", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, room)
}

func (h *Handlers) deleteRoom(w http.ResponseWriter, r *http.Request) {
	n, err := h.Rooms.DeleteRoom(r.Context(), chi.URLParam(r, "id"))
	observability.ObserveBooking("delete_room", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"message": "Room deleted", "reservations_deleted": n})
}

// ---- reservations ----

func (h *Handlers) listReservations(w http.ResponseWriter, r *http.Request) {
	pg, ok := page(w, r)
	if !ok {
		return
	}
	q := app.ListQuery{RoomID: r.URL.Query().Get("room_id"), PageQuery: pg}
	if s := r.URL.Query().Get("status"); s != "" {
		st := domain.Status(s)
		q.Status = &st
	}
	rs, err := h.Reservations.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReservationsJSON(rs))
}

func (h *Handlers) getReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Reservations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReservationJSON(res))
}

func (h *Handlers) createReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Reservations.Create(r.Context(), req.reservation())
	observability.ObserveBooking("create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toReservationJSON(res))
}

func (h *Handlers) updateReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Reservations.Update(r.Context(), chi.URLParam(r, "id"), req.patch())
	observability.ObserveBooking("update", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toReservationJSON(res))
}

func (h *Handlers) deleteReservation(w http.ResponseWriter, r *http.Request) {
	err := h.Reservations.Delete(r.Context(), chi.URLParam(r, "id"))
	observability.ObserveBooking("delete", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Reservation deleted"})
}

func (h *Handlers) calendar(w http.ResponseWriter, r *http.Request) {
	start, ok := queryDate(w, r, "start_date")
	if !ok {
		return
	}
	end, ok := queryDate(w, r, "end_date")
	if !ok {
		return
	}
	vs, err := h.Reservations.Calendar(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toViewsJSON(vs))
}

func (h *Handlers) searchGuests(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}
	out, err := h.Guests.SearchGuests(r.Context(), r.URL.Query().Get("query"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

// ---- guests ----

func (h *Handlers) listGuests(w http.ResponseWriter, r *http.Request) {
	gs, err := h.Guests.ListGuests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toGuestsJSON(gs))
}

func (h *Handlers) updateGuest(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when the client kept an escaped slash, and on
	// the already decoded Path otherwise
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		var err error
		if name, err = url.PathUnescape(name); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid name", "guest name is not valid path encoding")
			return
		}
	}
	var req guestRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.Guests.UpdateGuest(r.Context(), name, req.patch())
	observability.ObserveBooking("update_guest", err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"message": "Guest updated", "updated_count": n})
}

// ---- invoices ----

func (h *Handlers) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Invoices.Invoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, invoiceJSON{Invoice: inv, Reservation: toReservationJSON(inv.Reservation)})
}

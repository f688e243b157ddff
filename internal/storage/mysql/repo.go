package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"

	"lobby_lobster/internal/domain"
)

const dateLayout = "2006-01-02"

// errDupEntry is MySQL's ER_DUP_ENTRY.
const errDupEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valPayment(p *domain.PaymentMethod) any {
	if p == nil {
		return nil
	}
	return string(*p)
}
func valDate(t time.Time) string { return t.Format(dateLayout) }

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements domain.Store. A Repo built by New owns the pool; the one
// handed to WithinTx callbacks is bound to a single transaction.
type Repo struct {
	db *sql.DB
	q  querier
}

func New(db *sql.DB) *Repo { return &Repo{db: db, q: db} }

func (r *Repo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	if r.db == nil {
		return fn(ctx, r) // already inside a transaction
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ctx, &Repo{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isDup(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupEntry
}

func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// -----------------------------------------------------------------------------
// ROOMS
// -----------------------------------------------------------------------------

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(s scanner) (domain.Room, error) {
	var rm domain.Room
	var roomType string
	var floor sql.NullInt64
	var desc sql.NullString
	if err := s.Scan(&rm.ID, &rm.Number, &rm.Name, &roomType, &rm.Capacity, &floor, &desc, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, domain.ErrNotFound
		}
		return domain.Room{}, err
	}
	rm.Type = domain.RoomType(roomType)
	if floor.Valid {
		f := int(floor.Int64)
		rm.Floor = &f
	}
	rm.Description = strPtr(desc)
	return rm, nil
}

func (r *Repo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	return scanRoom(r.q.QueryRowContext(ctx, getRoomSQL, id))
}

func (r *Repo) LockRoom(ctx context.Context, id string) (domain.Room, error) {
	return scanRoom(r.q.QueryRowContext(ctx, lockRoomSQL, id))
}

func (r *Repo) FindRoomByNumber(ctx context.Context, number string) (domain.Room, error) {
	return scanRoom(r.q.QueryRowContext(ctx, getRoomByNumberSQL, number))
}

func (r *Repo) ListRooms(ctx context.Context, pg domain.PageQuery) ([]domain.Room, error) {
	rows, err := r.q.QueryContext(ctx, listRoomsSQL, pg.Limit, pg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) CreateRoom(ctx context.Context, rm domain.Room) error {
	_, err := r.q.ExecContext(ctx, insertRoomSQL,
		rm.ID, rm.Number, rm.Name, string(rm.Type), rm.Capacity,
		valInt(rm.Floor), valStr(rm.Description), rm.CreatedAt, rm.UpdatedAt,
	)
	if isDup(err) {
		return domain.ErrDuplicateKey
	}
	return err
}

func (r *Repo) UpdateRoom(ctx context.Context, rm domain.Room) error {
	res, err := r.q.ExecContext(ctx, updateRoomSQL,
		rm.Number, rm.Name, string(rm.Type), rm.Capacity,
		valInt(rm.Floor), valStr(rm.Description), rm.UpdatedAt,
		rm.ID,
	)
	if isDup(err) {
		return domain.ErrDuplicateKey
	}
	return mustAffect(res, err)
}

func (r *Repo) DeleteRoom(ctx context.Context, id string) error {
	return mustAffect(r.q.ExecContext(ctx, deleteRoomSQL, id))
}

// -----------------------------------------------------------------------------
// RESERVATIONS
// -----------------------------------------------------------------------------

func scanReservation(s scanner, extra ...any) (domain.Reservation, error) {
	var res domain.Reservation
	var (
		email, phone, addr, city, postal, country sql.NullString
		company, cAddr, cCity, cPostal, cCountry  sql.NullString
		status                                    string
		perNight, total                           sql.NullFloat64
		payment, notes                            sql.NullString
	)
	dest := []any{
		&res.ID, &res.RoomID,
		&res.Guest.Name, &email, &phone, &addr, &city, &postal, &country,
		&company, &cAddr, &cCity, &cPostal, &cCountry,
		&res.CheckIn, &res.CheckOut, &status,
		&perNight, &res.BreakfastIncluded, &total, &payment, &notes,
		&res.CreatedAt, &res.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}

	res.Guest.Email = strPtr(email)
	res.Guest.Phone = strPtr(phone)
	res.Guest.Address = strPtr(addr)
	res.Guest.City = strPtr(city)
	res.Guest.PostalCode = strPtr(postal)
	res.Guest.Country = strPtr(country)
	res.Company.Name = strPtr(company)
	res.Company.Address = strPtr(cAddr)
	res.Company.City = strPtr(cCity)
	res.Company.PostalCode = strPtr(cPostal)
	res.Company.Country = strPtr(cCountry)
	res.CheckIn = domain.Day(res.CheckIn)
	res.CheckOut = domain.Day(res.CheckOut)
	res.Status = domain.Status(status)
	if perNight.Valid {
		f := perNight.Float64
		res.PricePerNight = &f
	}
	if total.Valid {
		f := total.Float64
		res.TotalPrice = &f
	}
	if payment.Valid {
		pm := domain.PaymentMethod(payment.String)
		res.PaymentMethod = &pm
	}
	res.Notes = strPtr(notes)
	return res, nil
}

func (r *Repo) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return scanReservation(r.q.QueryRowContext(ctx, getReservationSQL, id))
}

func (r *Repo) LockReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return scanReservation(r.q.QueryRowContext(ctx, lockReservationSQL, id))
}

func (r *Repo) FindReservations(ctx context.Context, f domain.ReservationFilter) ([]domain.Reservation, error) {
	var where []string
	var args []any
	if f.RoomID != "" {
		where = append(where, "r.room_id = ?")
		args = append(args, f.RoomID)
	}
	if len(f.Statuses) > 0 {
		ph := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			ph[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "r.status IN ("+strings.Join(ph, ", ")+")")
	}
	if f.ExcludeID != "" {
		where = append(where, "r.id <> ?")
		args = append(args, f.ExcludeID)
	}
	if f.GuestKey != "" {
		// The column collation folds accents and TRIM only strips spaces, so
		// SQL narrows to candidates and domain.GuestKey decides.
		where = append(where, `r.guest_name LIKE ? ESCAPE '\\'`)
		args = append(args, "%"+escapeLike(f.GuestKey)+"%")
	}
	if o := f.Overlapping; o != nil {
		where = append(where, "r.check_in < ? AND r.check_out > ?")
		args = append(args, valDate(o.To), valDate(o.From))
	}

	q := selectReservationsSQL
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.created_at, r.id"
	pageInSQL := f.Limit > 0 && f.GuestKey == ""
	if pageInSQL {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		if f.GuestKey != "" && res.GuestKey() != f.GuestKey {
			continue
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !pageInSQL && f.Limit > 0 {
		out = pageOf(out, f.Offset, f.Limit)
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func pageOf(items []domain.Reservation, offset, limit int) []domain.Reservation {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []domain.Reservation{}
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (r *Repo) ListReservationViews(ctx context.Context, order domain.ReservationOrder) ([]domain.ReservationView, error) {
	q := selectViewsSQL + " ORDER BY r.check_in DESC, r.created_at, r.id"
	if order == domain.OrderCreatedDesc {
		q = selectViewsSQL + " ORDER BY r.created_at DESC, r.id DESC"
	}
	return r.views(ctx, q)
}

func (r *Repo) CalendarReservations(ctx context.Context, start, end time.Time) ([]domain.ReservationView, error) {
	return r.views(ctx, calendarSQL, valDate(end), valDate(start))
}

func (r *Repo) views(ctx context.Context, q string, args ...any) ([]domain.ReservationView, error) {
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ReservationView{}
	for rows.Next() {
		var v domain.ReservationView
		res, err := scanReservation(rows, &v.RoomNumber, &v.RoomName)
		if err != nil {
			return nil, err
		}
		v.Reservation = res
		out = append(out, v)
	}
	return out, rows.Err()
}

func reservationArgs(res domain.Reservation) []any {
	return []any{
		res.Guest.Name, valStr(res.Guest.Email), valStr(res.Guest.Phone), valStr(res.Guest.Address),
		valStr(res.Guest.City), valStr(res.Guest.PostalCode), valStr(res.Guest.Country),
		valStr(res.Company.Name), valStr(res.Company.Address), valStr(res.Company.City),
		valStr(res.Company.PostalCode), valStr(res.Company.Country),
		valDate(res.CheckIn), valDate(res.CheckOut), string(res.Status),
		valF64(res.PricePerNight), res.BreakfastIncluded, valF64(res.TotalPrice),
		valPayment(res.PaymentMethod), valStr(res.Notes),
	}
}

func (r *Repo) CreateReservation(ctx context.Context, res domain.Reservation) error {
	args := append([]any{res.ID, res.RoomID}, reservationArgs(res)...)
	args = append(args, res.CreatedAt, res.UpdatedAt)
	_, err := r.q.ExecContext(ctx, insertReservationSQL, args...)
	return err
}

func (r *Repo) UpdateReservation(ctx context.Context, res domain.Reservation) error {
	args := append([]any{res.RoomID}, reservationArgs(res)...)
	args = append(args, res.UpdatedAt, res.ID)
	return mustAffect(r.q.ExecContext(ctx, updateReservationSQL, args...))
}

func (r *Repo) DeleteReservation(ctx context.Context, id string) error {
	return mustAffect(r.q.ExecContext(ctx, deleteReservationSQL, id))
}

func (r *Repo) DeleteReservationsForRoom(ctx context.Context, roomID string) (int, error) {
	res, err := r.q.ExecContext(ctx, deleteRoomReservationsSQL, roomID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

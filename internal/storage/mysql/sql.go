package mysql

const roomCols = `id, number, name, room_type, capacity, floor, description, created_at, updated_at`

const getRoomSQL = `SELECT ` + roomCols + ` FROM rooms WHERE id = ?`

// Holding the room row serialises bookings for that room until commit.
const lockRoomSQL = getRoomSQL + ` FOR UPDATE`

const getRoomByNumberSQL = `SELECT ` + roomCols + ` FROM rooms WHERE number = ?`

const listRoomsSQL = `SELECT ` + roomCols + ` FROM rooms ORDER BY created_at, id LIMIT ? OFFSET ?`

const insertRoomSQL = `
INSERT INTO rooms
  (id, number, name, room_type, capacity, floor, description, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateRoomSQL = `
UPDATE rooms SET
  number      = ?,
  name        = ?,
  room_type   = ?,
  capacity    = ?,
  floor       = ?,
  description = ?,
  updated_at  = ?
WHERE id = ?
`

const deleteRoomSQL = `DELETE FROM rooms WHERE id = ?`

// -----------------------------------------------------------------------------
// RESERVATIONS
// -----------------------------------------------------------------------------

const reservationCols = `
  r.id, r.room_id,
  r.guest_name, r.guest_email, r.guest_phone, r.guest_address, r.guest_city,
  r.guest_postal_code, r.guest_country,
  r.guest_company, r.company_address, r.company_city, r.company_postal_code, r.company_country,
  r.check_in, r.check_out, r.status,
  r.price_per_night, r.breakfast_included, r.total_price, r.payment_method, r.notes,
  r.created_at, r.updated_at`

const getReservationSQL = `SELECT ` + reservationCols + ` FROM reservations r WHERE r.id = ?`

const lockReservationSQL = getReservationSQL + ` FOR UPDATE`

const selectReservationsSQL = `SELECT ` + reservationCols + ` FROM reservations r`

const selectViewsSQL = `SELECT ` + reservationCols + `, m.number, m.name
FROM reservations r
JOIN rooms m ON m.id = r.room_id`

// Inclusive on both ends: the calendar shows stays touching either edge.
const calendarSQL = selectViewsSQL + `
WHERE r.status IN ('CONFIRMED', 'CHECKED_IN')
  AND r.check_in <= ?
  AND r.check_out >= ?
ORDER BY r.check_in, r.id`

const insertReservationSQL = `
INSERT INTO reservations
  (id, room_id,
   guest_name, guest_email, guest_phone, guest_address, guest_city, guest_postal_code, guest_country,
   guest_company, company_address, company_city, company_postal_code, company_country,
   check_in, check_out, status,
   price_per_night, breakfast_included, total_price, payment_method, notes,
   created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateReservationSQL = `
UPDATE reservations SET
  room_id             = ?,
  guest_name          = ?,
  guest_email         = ?,
  guest_phone         = ?,
  guest_address       = ?,
  guest_city          = ?,
  guest_postal_code   = ?,
  guest_country       = ?,
  guest_company       = ?,
  company_address     = ?,
  company_city        = ?,
  company_postal_code = ?,
  company_country     = ?,
  check_in            = ?,
  check_out           = ?,
  status              = ?,
  price_per_night     = ?,
  breakfast_included  = ?,
  total_price         = ?,
  payment_method      = ?,
  notes               = ?,
  updated_at          = ?
WHERE id = ?
`

const deleteReservationSQL = `DELETE FROM reservations WHERE id = ?`

const deleteRoomReservationsSQL = `DELETE FROM reservations WHERE room_id = ?`

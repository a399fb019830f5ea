package mysql

// -----------------------------------------------------------------------------
// BOOKINGS
// -----------------------------------------------------------------------------

// Locks the hotel row for the duration of the booking transaction so the
// overlap check and the insert are serialized per hotel.
const lockHotelForBookingSQL = `
SELECT price_per_night FROM hotels WHERE id = ? FOR UPDATE
`

// Half-open [check_in, check_out) overlap: existing.check_in < new.check_out
// AND new.check_in < existing.check_out. Cancelled rows never block.
const countOverlapsSQL = `
SELECT COUNT(*)
FROM bookings
WHERE hotel_id = ?
  AND status <> 'cancelled'
  AND check_in < ?
  AND ? < check_out
`

const insertBookingSQL = `
INSERT INTO bookings (hotel_id, user_id, check_in, check_out, status, total_price)
VALUES (?, ?, ?, ?, 'pending', ?)
`

const getBookingSQL = `
SELECT id, hotel_id, user_id, check_in, check_out, status, total_price, created_at
FROM bookings
WHERE id = ?
`

const listUserBookingsSQL = `
SELECT b.id, b.hotel_id, b.user_id, b.check_in, b.check_out, b.status, b.total_price, b.created_at,
       h.name, h.city
FROM bookings b
JOIN hotels h ON h.id = b.hotel_id
WHERE b.user_id = ?
ORDER BY b.created_at DESC, b.id DESC
`

const listAllBookingsSQL = `
SELECT b.id, b.hotel_id, b.user_id, b.check_in, b.check_out, b.status, b.total_price, b.created_at,
       h.name, h.city
FROM bookings b
JOIN hotels h ON h.id = b.hotel_id
ORDER BY b.created_at DESC, b.id DESC
`

const occupiedRangesSQL = `
SELECT check_in, check_out
FROM bookings
WHERE hotel_id = ? AND status <> 'cancelled'
ORDER BY check_in
`

// Status guard doubles as the at-most-once check: zero rows affected means
// the booking was not in the expected state.
const transitionStatusSQL = `
UPDATE bookings SET status = ? WHERE id = ? AND status = ?
`

const insertPaymentSQL = `
INSERT INTO payments (id, booking_id, auth_code, amount)
VALUES (?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// HOTELS
// -----------------------------------------------------------------------------

const getHotelSQL = `
SELECT id, name, description, address, city, stars, price_per_night
FROM hotels
WHERE id = ?
`

const listHotelsSQL = `
SELECT id, name, description, address, city, stars, price_per_night
FROM hotels
ORDER BY id
`

const searchHotelsSQL = `
SELECT id, name, description, address, city, stars, price_per_night
FROM hotels
WHERE city LIKE CONCAT('%', ?, '%') AND name LIKE CONCAT('%', ?, '%')
ORDER BY id
`

const insertHotelSQL = `
INSERT INTO hotels (name, description, address, city, stars, price_per_night)
VALUES (?, ?, ?, ?, ?, ?)
`

// Display fields only; nil params keep the stored value.
const updateHotelSQL = `
UPDATE hotels SET
  name            = COALESCE(?, name),
  description     = COALESCE(?, description),
  address         = COALESCE(?, address),
  city            = COALESCE(?, city),
  stars           = COALESCE(?, stars),
  price_per_night = COALESCE(?, price_per_night),
  updated_at      = CURRENT_TIMESTAMP
WHERE id = ?
`

const deleteHotelSQL = `
DELETE FROM hotels WHERE id = ?
`

// Seeding upsert; keyed by id so catalog reloads are idempotent.
const upsertHotelSQL = `
INSERT INTO hotels (id, name, description, address, city, stars, price_per_night)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name            = VALUES(name),
  description     = VALUES(description),
  address         = VALUES(address),
  city            = VALUES(city),
  stars           = VALUES(stars),
  price_per_night = VALUES(price_per_night),
  updated_at      = CURRENT_TIMESTAMP
`

// -----------------------------------------------------------------------------
// REVIEWS
// -----------------------------------------------------------------------------

const insertReviewSQL = `
INSERT INTO reviews (hotel_id, user_id, content, rating)
VALUES (?, ?, ?, ?)
`

const listHotelReviewsSQL = `
SELECT id, hotel_id, user_id, content, rating, created_at
FROM reviews
WHERE hotel_id = ?
ORDER BY created_at DESC, id DESC
`

// -----------------------------------------------------------------------------
// CONTACTS
// -----------------------------------------------------------------------------

const insertContactSQL = `
INSERT INTO contacts (name, email, subject, message)
VALUES (?, ?, ?, ?)
`

const listContactsSQL = `
SELECT id, name, email, subject, message, is_read, created_at
FROM contacts
ORDER BY created_at DESC, id DESC
`

const markContactReadSQL = `
UPDATE contacts SET is_read = 1 WHERE id = ?
`

const getContactSQL = `
SELECT id, name, email, subject, message, is_read, created_at
FROM contacts
WHERE id = ?
`

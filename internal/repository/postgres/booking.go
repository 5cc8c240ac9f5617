package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

const bookingColumns = `
	id, customer_id, customer_name, customer_address,
	driver_id, driver_name, vehicle_id, vehicle_name, vehicle_type,
	status,
	pickup_lat, pickup_lng, pickup_address,
	destination_lat, destination_lng, destination_address,
	distance, price,
	pickup_otp, otp_generated_at,
	driver_lat, driver_lng,
	version, created_at, updated_at
`

// Create persists a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	pickupLat, pickupLng, pickupAddr := locationColumns(booking.PickupLocation)
	destLat, destLng, destAddr := locationColumns(booking.DestinationLocation)
	driverLat, driverLng, _ := locationColumns(booking.DriverLocation)

	_, err := r.q.ExecContext(ctx, query,
		booking.ID,
		booking.CustomerID,
		nullString(booking.CustomerName),
		nullString(booking.CustomerAddress),
		nullString(booking.DriverID),
		nullString(booking.DriverName),
		nullString(booking.VehicleID),
		nullString(booking.VehicleName),
		nullString(booking.VehicleType),
		booking.Status,
		pickupLat, pickupLng, pickupAddr,
		destLat, destLng, destAddr,
		booking.Distance,
		booking.Price,
		nullString(booking.PickupOTP),
		nullTime(booking.OTPGeneratedAt),
		driverLat, driverLng,
		booking.Version,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	return err
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves all bookings, newest first.
func (r *BookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC LIMIT 500`
	return r.queryBookings(ctx, query)
}

// GetByCustomerID retrieves all bookings for a customer, newest first.
func (r *BookingRepository) GetByCustomerID(ctx context.Context, customerID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE customer_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, customerID)
}

// GetByDriverID retrieves all bookings for a driver, newest first.
func (r *BookingRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.queryBookings(ctx, query, driverID)
}

// FindRecentRequested returns a Requested booking for the same customer and
// vehicle created at or after the cutoff, or repository.ErrNotFound.
func (r *BookingRepository) FindRecentRequested(ctx context.Context, customerID, vehicleID string, since time.Time) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1 AND vehicle_id = $2 AND status = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanBooking(r.q.QueryRowContext(ctx, query, customerID, vehicleID, domain.BookingStatusRequested, since))
}

// GetBusy retrieves all bookings in a busy status.
func (r *BookingRepository) GetBusy(ctx context.Context) ([]*domain.Booking, error) {
	statuses := make([]string, len(domain.BusyStatuses))
	for i, s := range domain.BusyStatuses {
		statuses[i] = string(s)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ANY($1)`
	return r.queryBookings(ctx, query, pq.Array(statuses))
}

// UpdateVersioned persists the booking conditioned on the version the caller
// read. A lost race returns repository.ErrVersionConflict.
func (r *BookingRepository) UpdateVersioned(ctx context.Context, booking *domain.Booking) error {
	query := `
		UPDATE bookings SET
			customer_name = $1, customer_address = $2,
			driver_id = $3, driver_name = $4,
			vehicle_id = $5, vehicle_name = $6, vehicle_type = $7,
			status = $8,
			pickup_lat = $9, pickup_lng = $10, pickup_address = $11,
			destination_lat = $12, destination_lng = $13, destination_address = $14,
			distance = $15, price = $16,
			pickup_otp = $17, otp_generated_at = $18,
			driver_lat = $19, driver_lng = $20,
			version = version + 1, updated_at = $21
		WHERE id = $22 AND version = $23
	`

	pickupLat, pickupLng, pickupAddr := locationColumns(booking.PickupLocation)
	destLat, destLng, destAddr := locationColumns(booking.DestinationLocation)
	driverLat, driverLng, _ := locationColumns(booking.DriverLocation)

	now := time.Now()
	result, err := r.q.ExecContext(ctx, query,
		nullString(booking.CustomerName),
		nullString(booking.CustomerAddress),
		nullString(booking.DriverID),
		nullString(booking.DriverName),
		nullString(booking.VehicleID),
		nullString(booking.VehicleName),
		nullString(booking.VehicleType),
		booking.Status,
		pickupLat, pickupLng, pickupAddr,
		destLat, destLng, destAddr,
		booking.Distance,
		booking.Price,
		nullString(booking.PickupOTP),
		nullTime(booking.OTPGeneratedAt),
		driverLat, driverLng,
		now,
		booking.ID,
		booking.Version,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Either the booking is gone or another writer won the race.
		if _, getErr := r.GetByID(ctx, booking.ID); errors.Is(getErr, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}

	booking.Version++
	booking.UpdatedAt = now
	return nil
}

// DeleteAll removes every booking.
func (r *BookingRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM bookings`)
	return err
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]*domain.Booking, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		booking, err := scanBookingRow(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row *sql.Row) (*domain.Booking, error) {
	booking, err := scanBookingRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return booking, err
}

func scanBookingRow(s rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var customerName, customerAddress, driverID, driverName sql.NullString
	var vehicleID, vehicleName, vehicleType, pickupOTP sql.NullString
	var pickupLat, pickupLng, destLat, destLng, driverLat, driverLng sql.NullFloat64
	var pickupAddr, destAddr sql.NullString
	var otpGeneratedAt sql.NullTime

	err := s.Scan(
		&booking.ID,
		&booking.CustomerID,
		&customerName,
		&customerAddress,
		&driverID,
		&driverName,
		&vehicleID,
		&vehicleName,
		&vehicleType,
		&booking.Status,
		&pickupLat, &pickupLng, &pickupAddr,
		&destLat, &destLng, &destAddr,
		&booking.Distance,
		&booking.Price,
		&pickupOTP,
		&otpGeneratedAt,
		&driverLat, &driverLng,
		&booking.Version,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CustomerName = customerName.String
	booking.CustomerAddress = customerAddress.String
	booking.DriverID = driverID.String
	booking.DriverName = driverName.String
	booking.VehicleID = vehicleID.String
	booking.VehicleName = vehicleName.String
	booking.VehicleType = vehicleType.String
	booking.PickupOTP = pickupOTP.String
	if otpGeneratedAt.Valid {
		booking.OTPGeneratedAt = otpGeneratedAt.Time
	}
	booking.PickupLocation = locationFromColumns(pickupLat, pickupLng, pickupAddr)
	booking.DestinationLocation = locationFromColumns(destLat, destLng, destAddr)
	booking.DriverLocation = locationFromColumns(driverLat, driverLng, sql.NullString{})

	return &booking, nil
}

func locationColumns(loc *domain.Location) (sql.NullFloat64, sql.NullFloat64, sql.NullString) {
	if loc == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}, sql.NullString{}
	}
	return sql.NullFloat64{Float64: loc.Lat, Valid: true},
		sql.NullFloat64{Float64: loc.Lng, Valid: true},
		nullString(loc.Address)
}

func locationFromColumns(lat, lng sql.NullFloat64, addr sql.NullString) *domain.Location {
	if !lat.Valid || !lng.Valid {
		return nil
	}
	return &domain.Location{Lat: lat.Float64, Lng: lng.Float64, Address: addr.String}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

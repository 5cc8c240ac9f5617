package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"dispatch/internal/domain"
	"dispatch/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

const vehicleColumns = `
	id, driver_id, driver_name, name, number, type, capacity, active,
	location_lat, location_lng, created_at, updated_at
`

// Create adds a new vehicle. A number collision returns repository.ErrDuplicate.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	lat, lng, _ := locationColumns(vehicle.Location)
	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		nullString(vehicle.DriverID),
		nullString(vehicle.DriverName),
		vehicle.Name,
		vehicle.Number,
		vehicle.Type,
		vehicle.Capacity,
		vehicle.Active,
		lat, lng,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	vehicle, err := scanVehicle(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return vehicle, err
}

// GetAll retrieves all vehicles, newest first.
func (r *VehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles ORDER BY created_at DESC`
	return r.queryVehicles(ctx, query)
}

// GetByDriverID retrieves all vehicles assigned to a driver.
func (r *VehicleRepository) GetByDriverID(ctx context.Context, driverID string) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.queryVehicles(ctx, query, driverID)
}

// GetActive retrieves all vehicles with the active flag set.
func (r *VehicleRepository) GetActive(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE active = true ORDER BY created_at DESC`
	return r.queryVehicles(ctx, query)
}

// Update updates an existing vehicle.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles SET
			driver_id = $1, driver_name = $2, name = $3, number = $4,
			type = $5, capacity = $6, active = $7,
			location_lat = $8, location_lng = $9, updated_at = now()
		WHERE id = $10
	`

	lat, lng, _ := locationColumns(vehicle.Location)
	result, err := r.q.ExecContext(ctx, query,
		nullString(vehicle.DriverID),
		nullString(vehicle.DriverName),
		vehicle.Name,
		vehicle.Number,
		vehicle.Type,
		vehicle.Capacity,
		vehicle.Active,
		lat, lng,
		vehicle.ID,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetActiveByDriver toggles the active flag on all of a driver's vehicles.
func (r *VehicleRepository) SetActiveByDriver(ctx context.Context, driverID string, active bool) (int, error) {
	query := `UPDATE vehicles SET active = $1, updated_at = now() WHERE driver_id = $2`
	result, err := r.q.ExecContext(ctx, query, active, driverID)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

// DeleteAll removes every vehicle.
func (r *VehicleRepository) DeleteAll(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM vehicles`)
	return err
}

func (r *VehicleRepository) queryVehicles(ctx context.Context, query string, args ...any) ([]*domain.Vehicle, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}
	return vehicles, rows.Err()
}

func scanVehicle(s rowScanner) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	var driverID, driverName sql.NullString
	var lat, lng sql.NullFloat64

	err := s.Scan(
		&vehicle.ID,
		&driverID,
		&driverName,
		&vehicle.Name,
		&vehicle.Number,
		&vehicle.Type,
		&vehicle.Capacity,
		&vehicle.Active,
		&lat, &lng,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	vehicle.DriverID = driverID.String
	vehicle.DriverName = driverName.String
	vehicle.Location = locationFromColumns(lat, lng, sql.NullString{})
	return &vehicle, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

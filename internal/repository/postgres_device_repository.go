package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshnosal/tip-driver-api/internal/domain"
)

// PostgresDeviceRepository implements DeviceRepository using PostgreSQL
type PostgresDeviceRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresDeviceRepository creates a new PostgresDeviceRepository
func NewPostgresDeviceRepository(pool *pgxpool.Pool) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{pool: pool}
}

const deviceColumns = `
	id, company_id, name, device_id, ip_address, status,
	COALESCE(last_used, 'epoch'::timestamptz) AS last_used, created_at, updated_at
`

// Create persists a new device
func (r *PostgresDeviceRepository) Create(ctx context.Context, device *domain.Device) error {
	query := `
		INSERT INTO devices (id, company_id, name, device_id, ip_address, status, last_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		device.ID,
		device.CompanyID,
		device.Name,
		device.DeviceID,
		device.IPAddress,
		string(device.Status),
		nullTimeOrValue(device.LastUsed),
		device.CreatedAt,
		device.UpdatedAt,
	)
	return err
}

// GetByIDForCompany retrieves a device only when it belongs to companyID.
// A matching id owned by another tenant yields (nil, nil).
func (r *PostgresDeviceRepository) GetByIDForCompany(ctx context.Context, id, companyID string) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1 AND company_id = $2`
	return r.scanOne(r.pool.QueryRow(ctx, query, id, companyID))
}

// ListByCompany retrieves all devices owned by companyID
func (r *PostgresDeviceRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE company_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := make([]*domain.Device, 0)
	for rows.Next() {
		device, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// CountByCompany counts devices owned by companyID
func (r *PostgresDeviceRepository) CountByCompany(ctx context.Context, companyID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM devices WHERE company_id = $1`, companyID).Scan(&count)
	return count, err
}

// Update persists the full device record
func (r *PostgresDeviceRepository) Update(ctx context.Context, device *domain.Device) error {
	query := `
		UPDATE devices
		SET name = $2, ip_address = $3, status = $4, last_used = $5, updated_at = $6
		WHERE id = $1
	`
	device.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		device.ID,
		device.Name,
		device.IPAddress,
		string(device.Status),
		nullTimeOrValue(device.LastUsed),
		device.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.New("device not found")
	}
	return nil
}

func (r *PostgresDeviceRepository) scanOne(row pgx.Row) (*domain.Device, error) {
	device := &domain.Device{}
	var status string
	err := row.Scan(
		&device.ID,
		&device.CompanyID,
		&device.Name,
		&device.DeviceID,
		&device.IPAddress,
		&status,
		&device.LastUsed,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	device.Status = domain.DeviceStatus(status)
	return device, nil
}

// nullTimeOrValue returns nil for zero times, otherwise returns the value
func nullTimeOrValue(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

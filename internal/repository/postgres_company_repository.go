package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joshnosal/tip-driver-api/internal/domain"
)

// PostgresCompanyRepository implements CompanyRepository using PostgreSQL.
// Membership sets are text arrays; the "set contains user" filters the
// services rely on become ANY() containment checks.
type PostgresCompanyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCompanyRepository creates a new PostgresCompanyRepository
func NewPostgresCompanyRepository(pool *pgxpool.Pool) *PostgresCompanyRepository {
	return &PostgresCompanyRepository{pool: pool}
}

const companyColumns = `
	id, name, admins, basic_users,
	COALESCE(billing_customer_id, '') AS billing_customer_id,
	COALESCE(connected_account_id, '') AS connected_account_id,
	tip_levels, custom_tip, invite_admins, invite_basic_users,
	device_ids, created_at, updated_at
`

// Create persists a new company
func (r *PostgresCompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	query := `
		INSERT INTO companies (
			id, name, admins, basic_users, billing_customer_id, connected_account_id,
			tip_levels, custom_tip, invite_admins, invite_basic_users, device_ids,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.Admins,
		company.BasicUsers,
		nullStringOrValue(company.BillingCustomerID),
		nullStringOrValue(company.ConnectedAccountID),
		company.TipLevels,
		company.CustomTip,
		company.InviteAdmins,
		company.InviteBasicUsers,
		company.DeviceIDs,
		company.CreatedAt,
		company.UpdatedAt,
	)
	return err
}

// GetByID retrieves a company by ID
func (r *PostgresCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// ListByMember retrieves every company where userID appears in either membership set
func (r *PostgresCompanyRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE $1 = ANY(admins) OR $1 = ANY(basic_users)
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]*domain.Company, 0)
	for rows.Next() {
		company, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, company)
	}
	return companies, rows.Err()
}

// CountByMember counts companies where userID appears in either membership set
func (r *PostgresCompanyRepository) CountByMember(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM companies WHERE $1 = ANY(admins) OR $1 = ANY(basic_users)`
	var count int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	return count, err
}

// Update persists the full company record (last write wins)
func (r *PostgresCompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	query := `
		UPDATE companies
		SET name = $2, admins = $3, basic_users = $4, billing_customer_id = $5,
		    connected_account_id = $6, tip_levels = $7, custom_tip = $8,
		    invite_admins = $9, invite_basic_users = $10, device_ids = $11,
		    updated_at = $12
		WHERE id = $1
	`
	company.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		company.ID,
		company.Name,
		company.Admins,
		company.BasicUsers,
		nullStringOrValue(company.BillingCustomerID),
		nullStringOrValue(company.ConnectedAccountID),
		company.TipLevels,
		company.CustomTip,
		company.InviteAdmins,
		company.InviteBasicUsers,
		company.DeviceIDs,
		company.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return errors.New("company not found")
	}
	return nil
}

func (r *PostgresCompanyRepository) scanOne(row pgx.Row) (*domain.Company, error) {
	company := &domain.Company{}
	err := row.Scan(
		&company.ID,
		&company.Name,
		&company.Admins,
		&company.BasicUsers,
		&company.BillingCustomerID,
		&company.ConnectedAccountID,
		&company.TipLevels,
		&company.CustomTip,
		&company.InviteAdmins,
		&company.InviteBasicUsers,
		&company.DeviceIDs,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return company, nil
}

// nullStringOrValue returns nil for empty strings, otherwise returns the value
func nullStringOrValue(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

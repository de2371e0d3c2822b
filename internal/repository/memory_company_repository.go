package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joshnosal/tip-driver-api/internal/domain"
)

// MemoryCompanyRepository is an in-memory implementation of
// CompanyRepository for testing
type MemoryCompanyRepository struct {
	mu        sync.RWMutex
	companies map[string]*domain.Company
}

// NewMemoryCompanyRepository creates a new in-memory company repository
func NewMemoryCompanyRepository() *MemoryCompanyRepository {
	return &MemoryCompanyRepository{companies: make(map[string]*domain.Company)}
}

// Create persists a new company
func (r *MemoryCompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.companies[company.ID]; exists {
		return errors.New("company already exists")
	}
	r.companies[company.ID] = copyCompany(company)
	return nil
}

// GetByID retrieves a company by ID
func (r *MemoryCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	company, exists := r.companies[id]
	if !exists {
		return nil, nil
	}
	return copyCompany(company), nil
}

// ListByMember retrieves every company where userID appears in either membership set
func (r *MemoryCompanyRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	companies := make([]*domain.Company, 0)
	for _, company := range r.companies {
		if company.IsMember(userID) {
			companies = append(companies, copyCompany(company))
		}
	}
	return companies, nil
}

// CountByMember counts companies where userID appears in either membership set
func (r *MemoryCompanyRepository) CountByMember(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, company := range r.companies {
		if company.IsMember(userID) {
			count++
		}
	}
	return count, nil
}

// Update persists the full company record
func (r *MemoryCompanyRepository) Update(ctx context.Context, company *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.companies[company.ID]; !exists {
		return errors.New("company not found")
	}
	company.UpdatedAt = time.Now()
	r.companies[company.ID] = copyCompany(company)
	return nil
}

func copyCompany(c *domain.Company) *domain.Company {
	copied := *c
	copied.Admins = append([]string(nil), c.Admins...)
	copied.BasicUsers = append([]string(nil), c.BasicUsers...)
	copied.TipLevels = append([]float64(nil), c.TipLevels...)
	copied.InviteAdmins = append([]string(nil), c.InviteAdmins...)
	copied.InviteBasicUsers = append([]string(nil), c.InviteBasicUsers...)
	copied.DeviceIDs = append([]string(nil), c.DeviceIDs...)
	return &copied
}

package repository

import (
	"context"

	"github.com/joshnosal/tip-driver-api/internal/domain"
)

// CompanyRepository defines the interface for company data access.
// Get methods return (nil, nil) when no record matches.
type CompanyRepository interface {
	// Create persists a new company
	Create(ctx context.Context, company *domain.Company) error
	// GetByID retrieves a company by ID
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	// ListByMember retrieves every company where userID appears in either
	// membership set
	ListByMember(ctx context.Context, userID string) ([]*domain.Company, error)
	// CountByMember counts companies where userID appears in either
	// membership set
	CountByMember(ctx context.Context, userID string) (int, error)
	// Update persists the full company record (last write wins)
	Update(ctx context.Context, company *domain.Company) error
}

package service

import (
	"context"

	"github.com/joshnosal/tip-driver-api/internal/apperror"
	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/repository"
)

// AuthService resolves a caller's membership in a company. It is the single
// gate every company-scoped operation passes through.
type AuthService interface {
	// ResolveMembership loads the company and verifies that userID holds at
	// least the given role in it. An empty role means any membership is
	// acceptable; domain.RoleAdmin restricts to admins.
	ResolveMembership(ctx context.Context, companyID, userID string, role domain.Role) (*domain.Company, error)
}

type authService struct {
	companyRepo repository.CompanyRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(companyRepo repository.CompanyRepository) AuthService {
	return &authService{companyRepo: companyRepo}
}

func (s *authService) ResolveMembership(ctx context.Context, companyID, userID string, role domain.Role) (*domain.Company, error) {
	if companyID == "" {
		return nil, apperror.ErrNotFound
	}
	if userID == "" {
		return nil, apperror.ErrForbidden
	}

	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, apperror.Internal("load company", err)
	}
	if company == nil {
		return nil, apperror.ErrNotFound
	}

	switch role {
	case domain.RoleAdmin:
		if !company.IsAdmin(userID) {
			return nil, apperror.ErrForbidden
		}
	default:
		if !company.IsMember(userID) {
			return nil, apperror.ErrForbidden
		}
	}

	return company, nil
}

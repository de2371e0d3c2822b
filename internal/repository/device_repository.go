package repository

import (
	"context"

	"github.com/joshnosal/tip-driver-api/internal/domain"
)

// DeviceRepository defines the interface for device data access.
// Lookups are always scoped by owning company so a device id from another
// tenant resolves to (nil, nil).
type DeviceRepository interface {
	// Create persists a new device
	Create(ctx context.Context, device *domain.Device) error
	// GetByIDForCompany retrieves a device only when it belongs to companyID
	GetByIDForCompany(ctx context.Context, id, companyID string) (*domain.Device, error)
	// ListByCompany retrieves all devices owned by companyID
	ListByCompany(ctx context.Context, companyID string) ([]*domain.Device, error)
	// CountByCompany counts devices owned by companyID
	CountByCompany(ctx context.Context, companyID string) (int, error)
	// Update persists the full device record
	Update(ctx context.Context, device *domain.Device) error
}

package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joshnosal/tip-driver-api/internal/domain"
)

// MemoryDeviceRepository is an in-memory implementation of DeviceRepository
// for testing
type MemoryDeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]*domain.Device

	// FailCreate forces Create to fail, for partial-write tests
	FailCreate bool
}

// NewMemoryDeviceRepository creates a new in-memory device repository
func NewMemoryDeviceRepository() *MemoryDeviceRepository {
	return &MemoryDeviceRepository{devices: make(map[string]*domain.Device)}
}

// Create persists a new device
func (r *MemoryDeviceRepository) Create(ctx context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailCreate {
		return errors.New("store unavailable")
	}
	if _, exists := r.devices[device.ID]; exists {
		return errors.New("device already exists")
	}
	copied := *device
	r.devices[device.ID] = &copied
	return nil
}

// GetByIDForCompany retrieves a device only when it belongs to companyID
func (r *MemoryDeviceRepository) GetByIDForCompany(ctx context.Context, id, companyID string) (*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	device, exists := r.devices[id]
	if !exists || device.CompanyID != companyID {
		return nil, nil
	}
	copied := *device
	return &copied, nil
}

// ListByCompany retrieves all devices owned by companyID
func (r *MemoryDeviceRepository) ListByCompany(ctx context.Context, companyID string) ([]*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*domain.Device, 0)
	for _, device := range r.devices {
		if device.CompanyID == companyID {
			copied := *device
			devices = append(devices, &copied)
		}
	}
	return devices, nil
}

// CountByCompany counts devices owned by companyID
func (r *MemoryDeviceRepository) CountByCompany(ctx context.Context, companyID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, device := range r.devices {
		if device.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

// Update persists the full device record
func (r *MemoryDeviceRepository) Update(ctx context.Context, device *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[device.ID]; !exists {
		return errors.New("device not found")
	}
	device.UpdatedAt = time.Now()
	copied := *device
	r.devices[device.ID] = &copied
	return nil
}

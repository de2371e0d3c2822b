package service

import (
	"context"
	"fmt"

	"github.com/joshnosal/tip-driver-api/internal/apperror"
	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/dto"
	"github.com/joshnosal/tip-driver-api/internal/repository"
)

// DeviceService manages kiosk devices within a company
type DeviceService interface {
	// Register creates a device under the company and records its id on the
	// company record. The two writes are not atomic: when the second write
	// fails the device row survives as an orphan and the error is surfaced.
	Register(ctx context.Context, company *domain.Company, req *dto.RegisterDeviceRequest) (*domain.Device, error)
	// Lookup retrieves one of the company's devices by id
	Lookup(ctx context.Context, company *domain.Company, deviceID string) (*domain.Device, error)
	// List returns every device owned by the company
	List(ctx context.Context, company *domain.Company) ([]*domain.Device, error)
	// Count returns the number of devices owned by a company
	Count(ctx context.Context, companyID string) (int, error)
}

type deviceService struct {
	deviceRepo  repository.DeviceRepository
	companyRepo repository.CompanyRepository
}

// NewDeviceService creates a new DeviceService
func NewDeviceService(deviceRepo repository.DeviceRepository, companyRepo repository.CompanyRepository) DeviceService {
	return &deviceService{
		deviceRepo:  deviceRepo,
		companyRepo: companyRepo,
	}
}

func (s *deviceService) Register(ctx context.Context, company *domain.Company, req *dto.RegisterDeviceRequest) (*domain.Device, error) {
	if req.Name == "" || req.DeviceID == "" || req.IPAddress == "" {
		return nil, fmt.Errorf("%w: missing device details", apperror.ErrInvalidArgument)
	}

	device := domain.NewDevice(company.ID, req.Name, req.DeviceID, req.IPAddress)
	if err := s.deviceRepo.Create(ctx, device); err != nil {
		return nil, apperror.Internal("create device", err)
	}

	company.DeviceIDs = append(company.DeviceIDs, device.ID)
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, apperror.Internal("record device on company", err)
	}

	return device, nil
}

func (s *deviceService) Lookup(ctx context.Context, company *domain.Company, deviceID string) (*domain.Device, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: missing device id", apperror.ErrInvalidArgument)
	}

	device, err := s.deviceRepo.GetByIDForCompany(ctx, deviceID, company.ID)
	if err != nil {
		return nil, apperror.Internal("load device", err)
	}
	if device == nil {
		return nil, apperror.ErrNotFound
	}
	return device, nil
}

func (s *deviceService) List(ctx context.Context, company *domain.Company) ([]*domain.Device, error) {
	devices, err := s.deviceRepo.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, apperror.Internal("list devices", err)
	}
	return devices, nil
}

func (s *deviceService) Count(ctx context.Context, companyID string) (int, error) {
	count, err := s.deviceRepo.CountByCompany(ctx, companyID)
	if err != nil {
		return 0, apperror.Internal("count devices", err)
	}
	return count, nil
}

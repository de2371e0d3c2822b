package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/joshnosal/tip-driver-api/internal/apperror"
	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/repository"
	"github.com/joshnosal/tip-driver-api/pkg/logger"
)

// ValidationResult is the aggregate session snapshot a kiosk boots from
type ValidationResult struct {
	ValidCompany    bool            `json:"validCompany"`
	CompanyCount    int             `json:"companyCount"`
	ValidDevice     bool            `json:"validDevice"`
	DeviceCount     int             `json:"deviceCount"`
	Company         *domain.Company `json:"company,omitempty"`
	Device          *domain.Device  `json:"device,omitempty"`
	AccountActive   bool            `json:"accountActive"`
	PaymentsEnabled bool            `json:"paymentsEnabled"`
	UpdateLink      string          `json:"stripeUpdateLink,omitempty"`
}

// ValidationService aggregates company, billing, account, and device checks
// into one call
type ValidationService interface {
	// Validate runs every check and never returns an error; each stage
	// degrades independently to its zero value. A failed company resolution
	// short-circuits the stages that need a company.
	Validate(ctx context.Context, userID, companyID, deviceID string) *ValidationResult
}

type validationService struct {
	companyRepo repository.CompanyRepository
	deviceRepo  repository.DeviceRepository
	auth        AuthService
	billing     BillingService
	webURL      string
	log         *logger.Logger
}

// NewValidationService creates a new ValidationService
func NewValidationService(
	companyRepo repository.CompanyRepository,
	deviceRepo repository.DeviceRepository,
	auth AuthService,
	billingSvc BillingService,
	webURL string,
	log *logger.Logger,
) ValidationService {
	return &validationService{
		companyRepo: companyRepo,
		deviceRepo:  deviceRepo,
		auth:        auth,
		billing:     billingSvc,
		webURL:      webURL,
		log:         log,
	}
}

func (s *validationService) Validate(ctx context.Context, userID, companyID, deviceID string) *ValidationResult {
	result := &ValidationResult{}
	log := s.log.WithContext(ctx)

	// Company resolution. The membership count is reported even when the
	// requested company cannot be resolved.
	if count, err := s.companyRepo.CountByMember(ctx, userID); err == nil {
		result.CompanyCount = count
	} else {
		log.Warn("company count failed", zap.Error(err))
	}

	company, err := s.auth.ResolveMembership(ctx, companyID, userID, "")
	if err != nil {
		log.Info("company validation failed",
			zap.String("company_id", companyID),
			zap.Error(err))
		return result
	}
	result.Company = company
	result.ValidCompany = true

	// Subscription standing: active only when at least one subscription
	// exists and none is outside good standing.
	if subscriptions, err := s.billing.CustomerSubscriptions(ctx, company); err == nil {
		result.AccountActive = len(subscriptions) > 0
		for _, sub := range subscriptions {
			if !sub.Status.IsActive() {
				result.AccountActive = false
			}
		}
	} else {
		log.Warn("subscription check failed",
			zap.String("company_id", company.ID),
			zap.Error(err))
	}

	// Connected account standing plus a fresh onboarding link the client
	// can surface when the account needs attention.
	s.checkAccount(ctx, company, result)

	// Device resolution.
	if count, err := s.deviceRepo.CountByCompany(ctx, company.ID); err == nil {
		result.DeviceCount = count
	} else {
		log.Warn("device count failed",
			zap.String("company_id", company.ID),
			zap.Error(err))
	}

	if deviceID != "" {
		device, err := s.deviceRepo.GetByIDForCompany(ctx, deviceID, company.ID)
		if err != nil {
			log.Warn("device validation failed",
				zap.String("device_id", deviceID),
				zap.Error(err))
		} else if device != nil {
			result.Device = device
			result.ValidDevice = true
		}
	}

	return result
}

func (s *validationService) checkAccount(ctx context.Context, company *domain.Company, result *ValidationResult) {
	account, err := s.billing.AccountStatus(ctx, company)
	if err != nil || account == nil {
		// No connected account yet is the normal state for a new company,
		// not a degraded stage.
		if err != nil && !errors.Is(err, apperror.ErrPrecondition) {
			s.log.WithContext(ctx).Warn("account check failed",
				zap.String("company_id", company.ID),
				zap.Error(err))
		}
		return
	}

	result.PaymentsEnabled = account.PayoutsEnabled && account.ChargesEnabled

	returnURL := s.webURL + "/dash/company/" + company.ID + "/settings"
	link, err := s.billing.UpdateLink(ctx, company, returnURL)
	if err != nil {
		s.log.WithContext(ctx).Warn("account link failed",
			zap.String("company_id", company.ID),
			zap.Error(err))
		return
	}
	result.UpdateLink = link
}

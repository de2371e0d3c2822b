package di

import (
	"github.com/joshnosal/tip-driver-api/internal/billing"
	"github.com/joshnosal/tip-driver-api/internal/config"
	"github.com/joshnosal/tip-driver-api/internal/database"
	"github.com/joshnosal/tip-driver-api/internal/handler"
	"github.com/joshnosal/tip-driver-api/internal/identity"
	"github.com/joshnosal/tip-driver-api/internal/notify"
	"github.com/joshnosal/tip-driver-api/internal/repository"
	"github.com/joshnosal/tip-driver-api/internal/service"
	"github.com/joshnosal/tip-driver-api/pkg/logger"
)

// Container holds all dependencies for the API server
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Gateway  billing.Gateway
	Identity identity.Provider
	Notifier notify.Notifier

	// Repositories
	CompanyRepo repository.CompanyRepository
	DeviceRepo  repository.DeviceRepository

	// Services
	AuthService       service.AuthService
	CompanyService    service.CompanyService
	DeviceService     service.DeviceService
	BillingService    service.BillingService
	ValidationService service.ValidationService

	// Handlers
	HealthHandler  *handler.HealthHandler
	CompanyHandler *handler.CompanyHandler
	DeviceHandler  *handler.DeviceHandler
	BillingHandler *handler.BillingHandler
	SessionHandler *handler.SessionHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config      *config.Config
	DB          *database.PostgresDB
	Gateway     billing.Gateway
	Identity    identity.Provider
	Notifier    notify.Notifier
	CompanyRepo repository.CompanyRepository
	DeviceRepo  repository.DeviceRepository
	Logger      *logger.Logger
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:          cfg.DB,
		Gateway:     cfg.Gateway,
		Identity:    cfg.Identity,
		Notifier:    cfg.Notifier,
		CompanyRepo: cfg.CompanyRepo,
		DeviceRepo:  cfg.DeviceRepo,
	}

	webURL := cfg.Config.App.WebURL

	c.AuthService = service.NewAuthService(c.CompanyRepo)
	c.BillingService = service.NewBillingService(
		c.Gateway,
		c.CompanyRepo,
		c.Identity,
		service.TrialPolicy{
			Enabled:    cfg.Config.Stripe.TrialEnabled,
			PeriodDays: cfg.Config.Stripe.TrialPeriodDays,
		},
		cfg.Logger,
	)
	c.CompanyService = service.NewCompanyService(
		c.CompanyRepo,
		c.BillingService,
		c.Identity,
		c.Notifier,
		webURL,
		cfg.Logger,
	)
	c.DeviceService = service.NewDeviceService(c.DeviceRepo, c.CompanyRepo)
	c.ValidationService = service.NewValidationService(
		c.CompanyRepo,
		c.DeviceRepo,
		c.AuthService,
		c.BillingService,
		webURL,
		cfg.Logger,
	)

	c.HealthHandler = handler.NewHealthHandler(c.DB, cfg.Config.App.Version)
	c.CompanyHandler = handler.NewCompanyHandler(c.CompanyService)
	c.DeviceHandler = handler.NewDeviceHandler(c.DeviceService)
	c.BillingHandler = handler.NewBillingHandler(c.BillingService, cfg.Config.Stripe.PublicKey)
	c.SessionHandler = handler.NewSessionHandler(c.ValidationService)

	return c
}

package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/mail"
	"time"

	"go.uber.org/zap"

	"github.com/joshnosal/tip-driver-api/internal/apperror"
	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/dto"
	"github.com/joshnosal/tip-driver-api/internal/identity"
	"github.com/joshnosal/tip-driver-api/internal/notify"
	"github.com/joshnosal/tip-driver-api/internal/repository"
	"github.com/joshnosal/tip-driver-api/pkg/logger"
)

const initialPasswordLength = 10

// CompanyService manages company lifecycle and membership
type CompanyService interface {
	// Create creates a company with the caller as sole admin, provisions its
	// billing customer, and invites the listed emails. Invite failures are
	// logged and swallowed; the company itself is always returned.
	Create(ctx context.Context, creatorID string, req *dto.CreateCompanyRequest) (*domain.Company, error)
	// ListForUser returns every company the user is a member of
	ListForUser(ctx context.Context, userID string) ([]*domain.Company, error)
	// Promote moves targetID from basic_users to admins
	Promote(ctx context.Context, company *domain.Company, callerID, targetID string) error
	// Demote moves targetID from admins to basic_users
	Demote(ctx context.Context, company *domain.Company, callerID, targetID string) error
	// RemoveMembers removes each user id from both membership sets
	RemoveMembers(ctx context.Context, company *domain.Company, userIDs []string) error
	// AddMember grants access to an existing user by email, or provisions a
	// new identity and grants access to it
	AddMember(ctx context.Context, company *domain.Company, email string, role domain.Role) error
	// UpdateSettings applies a whitelist-only settings update
	UpdateSettings(ctx context.Context, company *domain.Company, req *dto.UpdateCompanyRequest) error
}

type companyService struct {
	companyRepo repository.CompanyRepository
	billing     BillingService
	users       identity.Provider
	notifier    notify.Notifier
	webURL      string
	log         *logger.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(
	companyRepo repository.CompanyRepository,
	billing BillingService,
	users identity.Provider,
	notifier notify.Notifier,
	webURL string,
	log *logger.Logger,
) CompanyService {
	return &companyService{
		companyRepo: companyRepo,
		billing:     billing,
		users:       users,
		notifier:    notifier,
		webURL:      webURL,
		log:         log,
	}
}

func (s *companyService) Create(ctx context.Context, creatorID string, req *dto.CreateCompanyRequest) (*domain.Company, error) {
	if req.Name == "" || req.Admins == nil || req.BasicUsers == nil {
		return nil, fmt.Errorf("%w: missing fields", apperror.ErrInvalidArgument)
	}
	if creatorID == "" {
		return nil, apperror.ErrForbidden
	}

	company := domain.NewCompany(req.Name, creatorID)
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return nil, apperror.Internal("create company", err)
	}

	if err := s.billing.EnsureCustomer(ctx, company, creatorID); err != nil {
		return nil, err
	}

	// Invite fan-out. Each invite is independent: a bad address or provider
	// hiccup must not fail company creation.
	type invite struct {
		email string
		role  domain.Role
	}
	invites := make([]invite, 0, len(req.Admins)+len(req.BasicUsers))
	for _, email := range req.Admins {
		invites = append(invites, invite{email: email, role: domain.RoleAdmin})
	}
	for _, email := range req.BasicUsers {
		invites = append(invites, invite{email: email, role: domain.RoleBasic})
	}

	for _, inv := range invites {
		if err := s.invite(ctx, company, creatorID, inv.email, inv.role); err != nil {
			s.log.WithContext(ctx).Warn("company invite failed",
				zap.String("company_id", company.ID),
				zap.String("email", inv.email),
				zap.Error(err))
		}
	}

	return company, nil
}

// invite handles one email from the create-company fan-out. The creator gets
// a congratulations email instead of a grant; everyone else goes through the
// same path as AddMember.
func (s *companyService) invite(ctx context.Context, company *domain.Company, creatorID, email string, role domain.Role) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user != nil && user.ID == creatorID {
		event := &notify.EmailEvent{
			EventType: notify.EventTypeCompanyCreated,
			UserID:    user.ID,
			Email:     user.Email,
			Subject:   "Tip Driver - New Company!",
			Body: fmt.Sprintf("Congratulations! You have successfully created the new company %s on Tip Driver. "+
				"Sign in to check it out.", company.Name),
			Timestamp: time.Now().UTC(),
		}
		return s.notifier.SendEmail(ctx, event)
	}

	return s.AddMember(ctx, company, email, role)
}

func (s *companyService) ListForUser(ctx context.Context, userID string) ([]*domain.Company, error) {
	companies, err := s.companyRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("list companies", err)
	}
	return companies, nil
}

func (s *companyService) Promote(ctx context.Context, company *domain.Company, callerID, targetID string) error {
	return s.changeRole(ctx, company, callerID, targetID, domain.RoleAdmin)
}

func (s *companyService) Demote(ctx context.Context, company *domain.Company, callerID, targetID string) error {
	return s.changeRole(ctx, company, callerID, targetID, domain.RoleBasic)
}

func (s *companyService) changeRole(ctx context.Context, company *domain.Company, callerID, targetID string, role domain.Role) error {
	if targetID == "" || targetID == callerID {
		return fmt.Errorf("%w: invalid target user", apperror.ErrInvalidArgument)
	}

	company.Grant(targetID, role)
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return apperror.Internal("update company", err)
	}
	return nil
}

func (s *companyService) RemoveMembers(ctx context.Context, company *domain.Company, userIDs []string) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("%w: no user ids", apperror.ErrInvalidArgument)
	}

	company.Revoke(userIDs...)
	if len(company.Admins) == 0 {
		s.log.WithContext(ctx).Warn("company left with zero admins",
			zap.String("company_id", company.ID))
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return apperror.Internal("update company", err)
	}
	return nil
}

func (s *companyService) AddMember(ctx context.Context, company *domain.Company, email string, role domain.Role) error {
	if email == "" {
		return fmt.Errorf("%w: missing email", apperror.ErrInvalidArgument)
	}
	if role != domain.RoleAdmin {
		role = domain.RoleBasic
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return apperror.Internal("lookup user", err)
	}

	if user != nil {
		company.Grant(user.ID, role)
		if err := s.companyRepo.Update(ctx, company); err != nil {
			return apperror.Internal("update company", err)
		}
		s.sendAccessEmail(ctx, company, user, "")
		return nil
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email", apperror.ErrInvalidArgument)
	}

	password, err := generatePassword(initialPasswordLength)
	if err != nil {
		return apperror.Internal("generate password", err)
	}

	newUser, err := s.users.CreateUser(ctx, email, password)
	if err != nil {
		return apperror.Internal("create user", err)
	}

	company.Grant(newUser.ID, role)
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return apperror.Internal("update company", err)
	}
	s.sendAccessEmail(ctx, company, newUser, password)
	return nil
}

// sendAccessEmail notifies a user they were granted access. A non-empty
// password marks a freshly provisioned account and switches the template.
func (s *companyService) sendAccessEmail(ctx context.Context, company *domain.Company, user *identity.User, password string) {
	event := &notify.EmailEvent{
		EventType: notify.EventTypeAccessGranted,
		UserID:    user.ID,
		Email:     user.Email,
		Subject:   "Tip Driver - New Access",
		Body: fmt.Sprintf("You have been added to %s on Tip Driver. Sign in at %s to check it out.",
			company.Name, s.webURL),
		Timestamp: time.Now().UTC(),
	}
	if password != "" {
		event.EventType = notify.EventTypeAccountSetup
		event.Subject = "Tip Driver - Account Setup"
		event.Body = fmt.Sprintf("You have been added to %s on Tip Driver. Sign in at %s to check it out. "+
			"Your initial password is %q.", company.Name, s.webURL, password)
	}

	if err := s.notifier.SendEmail(ctx, event); err != nil {
		s.log.WithContext(ctx).Warn("access email not sent",
			zap.String("company_id", company.ID),
			zap.String("user_id", user.ID),
			zap.Error(err))
	}
}

func (s *companyService) UpdateSettings(ctx context.Context, company *domain.Company, req *dto.UpdateCompanyRequest) error {
	if len(req.Fields) == 0 {
		return fmt.Errorf("%w: missing update fields", apperror.ErrInvalidArgument)
	}

	// Whitelist-only update; unknown field names are ignored rather than
	// rejected.
	for _, field := range req.Fields {
		switch field {
		case "tip_levels":
			company.TipLevels = req.Company.TipLevels
		case "custom_tip":
			company.CustomTip = req.Company.CustomTip
		}
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return apperror.Internal("update company", err)
	}
	return nil
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = passwordCharset[int(b)%len(passwordCharset)]
	}
	return string(buf), nil
}

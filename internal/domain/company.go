package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a company membership tier.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleBasic Role = "basic_user"
)

// IsValid reports whether the role is one of the two known tiers.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleBasic
}

// DefaultTipLevels are the tip presets assigned to a new company.
var DefaultTipLevels = []float64{2, 5, 10}

// Company is the tenant boundary: membership sets, registered devices and
// billing references. A user id appears in at most one of Admins/BasicUsers
// at any time; Grant and Revoke maintain that by construction.
type Company struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Admins             []string  `json:"admins"`
	BasicUsers         []string  `json:"basic_users"`
	BillingCustomerID  string    `json:"billing_customer_id,omitempty"`
	ConnectedAccountID string    `json:"connected_account_id,omitempty"`
	TipLevels          []float64 `json:"tip_levels"`
	CustomTip          bool      `json:"custom_tip"`
	InviteAdmins       []string  `json:"invite_admins,omitempty"`
	InviteBasicUsers   []string  `json:"invite_basic_users,omitempty"`
	DeviceIDs          []string  `json:"devices"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewCompany creates a company with the creator as its sole admin.
func NewCompany(name, creatorID string) *Company {
	now := time.Now()
	return &Company{
		ID:         uuid.New().String(),
		Name:       name,
		Admins:     []string{creatorID},
		BasicUsers: []string{},
		TipLevels:  append([]float64(nil), DefaultTipLevels...),
		DeviceIDs:  []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsAdmin reports whether userID is in the admin set.
func (c *Company) IsAdmin(userID string) bool {
	return contains(c.Admins, userID)
}

// IsMember reports whether userID belongs to either membership set.
func (c *Company) IsMember(userID string) bool {
	return contains(c.Admins, userID) || contains(c.BasicUsers, userID)
}

// Grant places userID in the set for role and removes it from the other
// set. Granting a role the user already holds is a no-op.
func (c *Company) Grant(userID string, role Role) {
	if role == RoleAdmin {
		c.BasicUsers = remove(c.BasicUsers, userID)
		if !contains(c.Admins, userID) {
			c.Admins = append(c.Admins, userID)
		}
		return
	}
	c.Admins = remove(c.Admins, userID)
	if !contains(c.BasicUsers, userID) {
		c.BasicUsers = append(c.BasicUsers, userID)
	}
}

// Revoke removes every given user id from both membership sets.
func (c *Company) Revoke(userIDs ...string) {
	for _, id := range userIDs {
		c.Admins = remove(c.Admins, id)
		c.BasicUsers = remove(c.BasicUsers, id)
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func remove(set []string, v string) []string {
	out := set[:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

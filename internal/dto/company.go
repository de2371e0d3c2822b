package dto

// CreateCompanyRequest represents a request to create a new company. Admins
// and BasicUsers carry email addresses to invite, not user ids.
type CreateCompanyRequest struct {
	Name       string   `json:"name" binding:"required,min=1,max=255"`
	Admins     []string `json:"admins" binding:"required"`
	BasicUsers []string `json:"basic_users" binding:"required"`
}

// AddMemberRequest represents a request to add a single user to a company
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin basic_user"`
}

// RemoveMembersRequest represents a request to remove users from a company
type RemoveMembersRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
}

// CompanySettings carries the updatable company settings fields
type CompanySettings struct {
	TipLevels []float64 `json:"tip_levels"`
	CustomTip bool      `json:"custom_tip"`
}

// UpdateCompanyRequest represents a whitelist-driven settings update. Only
// field names listed in Fields are applied; unknown names are ignored.
type UpdateCompanyRequest struct {
	Fields  []string        `json:"fields" binding:"required"`
	Company CompanySettings `json:"company"`
}

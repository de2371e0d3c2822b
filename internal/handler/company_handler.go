package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/dto"
	"github.com/joshnosal/tip-driver-api/internal/middleware"
	"github.com/joshnosal/tip-driver-api/internal/service"
	"github.com/joshnosal/tip-driver-api/pkg/response"
)

// CompanyHandler handles company and membership HTTP requests
type CompanyHandler struct {
	companyService service.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Create handles company creation
// POST /company/new
func (h *CompanyHandler) Create(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	userID, _ := middleware.GetUserID(c)
	company, err := h.companyService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(company))
}

// Get returns the company resolved by the company-context middleware
// GET /company/company
func (h *CompanyHandler) Get(c *gin.Context) {
	company, _ := middleware.GetCompany(c)
	c.JSON(http.StatusOK, response.Success(company))
}

// ListMine returns every company the caller belongs to
// GET /user/companies
func (h *CompanyHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	companies, err := h.companyService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(companies))
}

// Promote moves a user into the admin set
// GET /company/promote_user, target in the userId header
func (h *CompanyHandler) Promote(c *gin.Context) {
	h.changeRole(c, domain.RoleAdmin)
}

// Demote moves a user into the basic set
// GET /company/demote_user, target in the userId header
func (h *CompanyHandler) Demote(c *gin.Context) {
	h.changeRole(c, domain.RoleBasic)
}

func (h *CompanyHandler) changeRole(c *gin.Context, role domain.Role) {
	company, _ := middleware.GetCompany(c)
	callerID, _ := middleware.GetUserID(c)
	targetID := c.GetHeader("userId")

	var err error
	if role == domain.RoleAdmin {
		err = h.companyService.Promote(c.Request.Context(), company, callerID, targetID)
	} else {
		err = h.companyService.Demote(c.Request.Context(), company, callerID, targetID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(company))
}

// RemoveUsers removes the listed users from both membership sets
// POST /company/remove_users
func (h *CompanyHandler) RemoveUsers(c *gin.Context) {
	var req dto.RemoveMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	company, _ := middleware.GetCompany(c)
	if err := h.companyService.RemoveMembers(c.Request.Context(), company, req.UserIDs); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(company))
}

// AddUser grants a user access by email, provisioning an identity if needed
// POST /company/add_user
func (h *CompanyHandler) AddUser(c *gin.Context) {
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	company, _ := middleware.GetCompany(c)
	if err := h.companyService.AddMember(c.Request.Context(), company, req.Email, domain.Role(req.Role)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(company))
}

// Update applies a whitelist-only settings update
// POST /company/update
func (h *CompanyHandler) Update(c *gin.Context) {
	var req dto.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	company, _ := middleware.GetCompany(c)
	if err := h.companyService.UpdateSettings(c.Request.Context(), company, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(company))
}

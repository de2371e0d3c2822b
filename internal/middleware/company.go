package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/domain"
	"github.com/joshnosal/tip-driver-api/internal/service"
	"github.com/joshnosal/tip-driver-api/pkg/response"
)

// ContextKeyCompany holds the resolved company for the request
const ContextKeyCompany = "company"

// HeaderCompanyID carries the tenant selector on company-scoped requests
const HeaderCompanyID = "companyId"

// CompanyContext resolves the companyId header against the caller's
// membership and injects the company into the request context. Any
// resolution failure, including an unknown company, aborts with 401; the
// route behaves as if it does not exist for callers without access.
func CompanyContext(auth service.AuthService, role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := GetUserID(c)
		companyID := c.GetHeader(HeaderCompanyID)

		company, err := auth.ResolveMembership(c.Request.Context(), companyID, userID, role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Unauthorized(""))
			return
		}

		c.Set(ContextKeyCompany, company)
		c.Next()
	}
}

// GetCompany extracts the resolved company from gin context
func GetCompany(c *gin.Context) (*domain.Company, bool) {
	value, exists := c.Get(ContextKeyCompany)
	if !exists {
		return nil, false
	}
	company, ok := value.(*domain.Company)
	return company, ok
}

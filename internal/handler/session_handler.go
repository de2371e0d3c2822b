package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/middleware"
	"github.com/joshnosal/tip-driver-api/internal/service"
)

// SessionHandler handles the aggregate session validation request
type SessionHandler struct {
	validationService service.ValidationService
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(validationService service.ValidationService) *SessionHandler {
	return &SessionHandler{validationService: validationService}
}

// Validate runs every boot check and always returns 200 with the snapshot;
// individual failures show up as false flags, never as an error status
// GET /app/validate, selectors in the companyId and deviceId headers
func (h *SessionHandler) Validate(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	companyID := c.GetHeader(middleware.HeaderCompanyID)
	deviceID := c.GetHeader("deviceId")

	result := h.validationService.Validate(c.Request.Context(), userID, companyID, deviceID)
	c.JSON(http.StatusOK, result)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshnosal/tip-driver-api/internal/dto"
	"github.com/joshnosal/tip-driver-api/internal/middleware"
	"github.com/joshnosal/tip-driver-api/internal/service"
	"github.com/joshnosal/tip-driver-api/pkg/response"
)

// DeviceHandler handles device HTTP requests
type DeviceHandler struct {
	deviceService service.DeviceService
}

// NewDeviceHandler creates a new DeviceHandler
func NewDeviceHandler(deviceService service.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// Register creates a device under the resolved company
// POST /device/new
func (h *DeviceHandler) Register(c *gin.Context) {
	var req dto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	company, _ := middleware.GetCompany(c)
	device, err := h.deviceService.Register(c.Request.Context(), company, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(device))
}

// Get retrieves one of the company's devices
// GET /device/device, id in the deviceId header
func (h *DeviceHandler) Get(c *gin.Context) {
	company, _ := middleware.GetCompany(c)
	deviceID := c.GetHeader("deviceId")

	device, err := h.deviceService.Lookup(c.Request.Context(), company, deviceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(device))
}

// List returns every device owned by the company
// GET /device/devices
func (h *DeviceHandler) List(c *gin.Context) {
	company, _ := middleware.GetCompany(c)

	devices, err := h.deviceService.List(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(devices))
}

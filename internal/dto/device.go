package dto

// RegisterDeviceRequest represents a request to register a kiosk device
// under a company
type RegisterDeviceRequest struct {
	Name      string `json:"name" binding:"required"`
	DeviceID  string `json:"device_id" binding:"required"`
	IPAddress string `json:"ip_address" binding:"required"`
}

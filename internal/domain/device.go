package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeviceStatus is the lifecycle state of a registered device. Devices only
// ever move active -> deleted.
type DeviceStatus string

const (
	DeviceStatusActive  DeviceStatus = "active"
	DeviceStatusDeleted DeviceStatus = "deleted"
)

// Device is a registered terminal bound to exactly one company. CompanyID
// and the hardware DeviceID are immutable after creation; authorization
// lookups always match on the pair (ID, CompanyID).
type Device struct {
	ID        string       `json:"id"`
	CompanyID string       `json:"company"`
	Name      string       `json:"name"`
	DeviceID  string       `json:"device_id"`
	IPAddress string       `json:"ip_address"`
	Status    DeviceStatus `json:"status"`
	LastUsed  time.Time    `json:"last_used,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewDevice creates an active device bound to the given company.
func NewDevice(companyID, name, deviceID, ipAddress string) *Device {
	now := time.Now()
	return &Device{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      name,
		DeviceID:  deviceID,
		IPAddress: ipAddress,
		Status:    DeviceStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

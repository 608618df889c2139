package model

import (
	"net"
	"time"
)

// DeviceStatus is the operational status of a device
type DeviceStatus string

const (
	DeviceStatusOnline      DeviceStatus = "online"
	DeviceStatusOffline     DeviceStatus = "offline"
	DeviceStatusMaintenance DeviceStatus = "maintenance"
	DeviceStatusError       DeviceStatus = "error"
)

// Valid reports whether s is one of the four device statuses
func (s DeviceStatus) Valid() bool {
	switch s {
	case DeviceStatusOnline, DeviceStatusOffline, DeviceStatusMaintenance, DeviceStatusError:
		return true
	}
	return false
}

// AdminOnlyStatuses are set by operators and never derived from probes
var AdminOnlyStatuses = []DeviceStatus{DeviceStatusMaintenance, DeviceStatusError}

// AdminOnly reports whether s is one of AdminOnlyStatuses
func (s DeviceStatus) AdminOnly() bool {
	for _, a := range AdminOnlyStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// DeviceType is the kind of network device
type DeviceType string

const (
	DeviceTypeRouter       DeviceType = "router"
	DeviceTypeSwitch       DeviceType = "switch"
	DeviceTypeFirewall     DeviceType = "firewall"
	DeviceTypeAccessPoint  DeviceType = "access_point"
	DeviceTypeLoadBalancer DeviceType = "load_balancer"
)

// Valid reports whether t is a known device type
func (t DeviceType) Valid() bool {
	switch t {
	case DeviceTypeRouter, DeviceTypeSwitch, DeviceTypeFirewall, DeviceTypeAccessPoint, DeviceTypeLoadBalancer:
		return true
	}
	return false
}

// DefaultSSHPort is used when a device has no port set
const DefaultSSHPort = 22

// Device is a managed network element. SSH and SNMP secrets are accepted on
// write and never serialized.
type Device struct {
	BaseModel
	Name          string       `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	DeviceType    DeviceType   `gorm:"type:varchar(20);not null;index" json:"device_type"`
	IPAddress     string       `gorm:"type:varchar(45);not null" json:"ip_address"`
	MACAddress    string       `gorm:"type:varchar(17)" json:"mac_address"`
	Location      string       `gorm:"type:varchar(200);index" json:"location"`
	Vendor        string       `gorm:"type:varchar(100);index" json:"vendor"`
	Model         string       `gorm:"type:varchar(100)" json:"model"`
	OSVersion     string       `gorm:"type:varchar(100)" json:"os_version"`
	Status        DeviceStatus `gorm:"type:varchar(20);not null;default:'offline';index" json:"status"`
	SSHPort       int          `gorm:"not null;default:22" json:"ssh_port"`
	SSHUsername   string       `gorm:"type:varchar(100)" json:"ssh_username"`
	SSHPassword   string       `gorm:"type:varchar(255)" json:"-"`
	SNMPCommunity string       `gorm:"type:varchar(100)" json:"-"`
	SysDescr      string       `gorm:"type:text" json:"sys_descr"`
	Description   string       `gorm:"type:text" json:"description"`
	CreatedByID   *int         `gorm:"index" json:"created_by_id"`
	LastSeen      *time.Time   `json:"last_seen"`
	DiscoveredAt  *time.Time   `json:"discovered_at"`

	Commands       []DeviceCommand       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Configurations []DeviceConfiguration `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Device model
func (Device) TableName() string {
	return "devices"
}

// Port returns the SSH port, falling back to 22
func (d *Device) Port() int {
	if d.SSHPort <= 0 {
		return DefaultSSHPort
	}
	return d.SSHPort
}

// ValidIP reports whether s parses as an IPv4 or IPv6 address
func ValidIP(s string) bool {
	return net.ParseIP(s) != nil
}

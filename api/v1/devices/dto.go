package devices

// ListRequest represents list devices request
type ListRequest struct {
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
	DeviceType string `form:"device_type"`
	Status     string `form:"status"`
	Vendor     string `form:"vendor"`
	Location   string `form:"location"`
	Search     string `form:"search"`
}

// CreateRequest represents create device request
type CreateRequest struct {
	Name          string `json:"name" binding:"required"`
	DeviceType    string `json:"device_type" binding:"required"`
	IPAddress     string `json:"ip_address" binding:"required"`
	MACAddress    string `json:"mac_address"`
	Location      string `json:"location"`
	Vendor        string `json:"vendor"`
	Model         string `json:"model"`
	OSVersion     string `json:"os_version"`
	Status        string `json:"status"`
	SSHPort       int    `json:"ssh_port"`
	SSHUsername   string `json:"ssh_username"`
	SSHPassword   string `json:"ssh_password"`
	SNMPCommunity string `json:"snmp_community"`
	Description   string `json:"description"`
}

// UpdateRequest represents a partial device update; nil fields are kept
type UpdateRequest struct {
	ID            int     `json:"id" binding:"required"`
	Name          *string `json:"name"`
	DeviceType    *string `json:"device_type"`
	IPAddress     *string `json:"ip_address"`
	MACAddress    *string `json:"mac_address"`
	Location      *string `json:"location"`
	Vendor        *string `json:"vendor"`
	Model         *string `json:"model"`
	OSVersion     *string `json:"os_version"`
	Status        *string `json:"status"`
	SSHPort       *int    `json:"ssh_port"`
	SSHUsername   *string `json:"ssh_username"`
	SSHPassword   *string `json:"ssh_password"`
	SNMPCommunity *string `json:"snmp_community"`
	Description   *string `json:"description"`
}

// DeleteRequest represents delete devices request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// PingRequest represents a single device reachability check
type PingRequest struct {
	DeviceID int `json:"device_id" binding:"required"`
}

// BulkCommandRequest represents a command fanned out to several devices
type BulkCommandRequest struct {
	Command   string `json:"command" binding:"required"`
	DeviceIDs []int  `json:"device_ids" binding:"required,min=1"`
}

// CommandRequest represents a command run on one device
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ConfigurationRequest represents a configuration to record for a device
type ConfigurationRequest struct {
	ConfigName    string `json:"config_name" binding:"required"`
	ConfigContent string `json:"config_content" binding:"required"`
}

// HistoryRequest pages command and configuration history
type HistoryRequest struct {
	Page     int `form:"page"`
	PageSize int `form:"pageSize"`
}

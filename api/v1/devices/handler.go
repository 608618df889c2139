package devices

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"go_netinv/api/v1/middleware"
	"go_netinv/internal/audit"
	"go_netinv/internal/devicecmd"
	"go_netinv/internal/devicehealth"
	"go_netinv/internal/httpx"
	"go_netinv/internal/model"
	"go_netinv/internal/store"
)

// Discoverer reads a device's SNMP system description. *probe.Prober implements it.
type Discoverer interface {
	SysDescr(ctx context.Context, address string, port int, community string) (string, error)
}

// Handler handles devices API
type Handler struct {
	store        *store.Store
	reconciler   *devicehealth.Reconciler
	orchestrator *devicecmd.Orchestrator
	discoverer   Discoverer
}

// NewHandler creates a new devices handler
func NewHandler(st *store.Store, r *devicehealth.Reconciler, o *devicecmd.Orchestrator, d Discoverer) *Handler {
	return &Handler{
		store:        st,
		reconciler:   r,
		orchestrator: o,
		discoverer:   d,
	}
}

func deviceID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		httpx.FailErr(c, httpx.ErrParamInvalid("invalid device id"))
		return 0, false
	}
	return id, true
}

func pageDefaults(page, pageSize, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

// List handles GET /api/v1/devices
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	req.Page, req.PageSize = pageDefaults(req.Page, req.PageSize, 20)

	items, total, err := h.store.ListDevices(c.Request.Context(), store.DeviceFilter{
		DeviceType: req.DeviceType,
		Status:     req.Status,
		Vendor:     req.Vendor,
		Location:   req.Location,
		Search:     strings.TrimSpace(req.Search),
		Page:       store.Page{Page: req.Page, PageSize: req.PageSize},
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch devices", err))
		return
	}

	httpx.OKItems(c, items, total, req.Page, req.PageSize)
}

// Get handles GET /api/v1/devices/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	d, err := h.store.GetDevice(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch device", err))
		return
	}
	httpx.OK(c, d)
}

func validateFields(deviceType, ip, status *string, port *int) *httpx.AppError {
	if deviceType != nil && !model.DeviceType(*deviceType).Valid() {
		return httpx.ErrParamIllegal(fmt.Sprintf("invalid device_type %q", *deviceType))
	}
	if ip != nil && !model.ValidIP(*ip) {
		return httpx.ErrParamIllegal(fmt.Sprintf("invalid ip_address %q", *ip))
	}
	if status != nil && *status != "" && !model.DeviceStatus(*status).Valid() {
		return httpx.ErrParamIllegal(fmt.Sprintf("invalid status %q", *status))
	}
	if port != nil && (*port < 0 || *port > 65535) {
		return httpx.ErrParamIllegal("ssh_port must be between 1 and 65535")
	}
	return nil
}

// Create handles POST /api/v1/devices/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httpx.FailErr(c, httpx.ErrParamInvalid("name cannot be empty"))
		return
	}
	if appErr := validateFields(&req.DeviceType, &req.IPAddress, &req.Status, &req.SSHPort); appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	actor := middleware.CurrentActor(c)
	d := &model.Device{
		Name:          req.Name,
		DeviceType:    model.DeviceType(req.DeviceType),
		IPAddress:     req.IPAddress,
		MACAddress:    req.MACAddress,
		Location:      req.Location,
		Vendor:        req.Vendor,
		Model:         req.Model,
		OSVersion:     req.OSVersion,
		Status:        model.DeviceStatus(req.Status),
		SSHPort:       req.SSHPort,
		SSHUsername:   req.SSHUsername,
		SSHPassword:   req.SSHPassword,
		SNMPCommunity: req.SNMPCommunity,
		Description:   req.Description,
		CreatedByID:   actor.UIDPtr(),
	}

	if err := h.store.CreateDevice(c.Request.Context(), d); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("device name already exists"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create device", err))
		return
	}

	audit.SetObject(c, "Device: "+d.Name)
	audit.SetChanges(c, d)
	httpx.OK(c, d)
}

// Update handles POST /api/v1/devices/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}
	if appErr := validateFields(req.DeviceType, req.IPAddress, req.Status, req.SSHPort); appErr != nil {
		httpx.FailErr(c, appErr)
		return
	}

	updates := map[string]interface{}{}
	// changes is what goes to the audit trail, secrets masked
	changes := map[string]interface{}{}
	set := func(column string, v interface{}, secret bool) {
		updates[column] = v
		if secret {
			changes[column] = "******"
		} else {
			changes[column] = v
		}
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httpx.FailErr(c, httpx.ErrParamInvalid("name cannot be empty"))
			return
		}
		set("name", name, false)
	}
	if req.DeviceType != nil {
		set("device_type", *req.DeviceType, false)
	}
	if req.IPAddress != nil {
		set("ip_address", *req.IPAddress, false)
	}
	if req.MACAddress != nil {
		set("mac_address", *req.MACAddress, false)
	}
	if req.Location != nil {
		set("location", *req.Location, false)
	}
	if req.Vendor != nil {
		set("vendor", *req.Vendor, false)
	}
	if req.Model != nil {
		set("model", *req.Model, false)
	}
	if req.OSVersion != nil {
		set("os_version", *req.OSVersion, false)
	}
	if req.Status != nil && *req.Status != "" {
		set("status", *req.Status, false)
	}
	if req.SSHPort != nil {
		port := *req.SSHPort
		if port == 0 {
			port = model.DefaultSSHPort
		}
		set("ssh_port", port, false)
	}
	if req.SSHUsername != nil {
		set("ssh_username", *req.SSHUsername, false)
	}
	if req.SSHPassword != nil {
		set("ssh_password", *req.SSHPassword, true)
	}
	if req.SNMPCommunity != nil {
		set("snmp_community", *req.SNMPCommunity, true)
	}
	if req.Description != nil {
		set("description", *req.Description, false)
	}

	ctx := c.Request.Context()
	if _, err := h.store.GetDevice(ctx, req.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch device", err))
		return
	}

	d, err := h.store.UpdateDevice(ctx, req.ID, updates)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httpx.FailErr(c, httpx.ErrAlreadyExists("device name already exists"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to update device", err))
		return
	}

	audit.SetObject(c, "Device: "+d.Name)
	audit.SetChanges(c, changes)
	httpx.OK(c, d)
}

// Delete handles POST /api/v1/devices/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	deleted, err := h.store.DeleteDevices(c.Request.Context(), req.IDs)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete devices", err))
		return
	}

	ids := make([]string, len(req.IDs))
	for i, id := range req.IDs {
		ids[i] = strconv.Itoa(id)
	}
	audit.SetObject(c, "Devices: "+strings.Join(ids, ","))
	httpx.OK(c, gin.H{"deleted": deleted})
}

// Statistics handles GET /api/v1/devices/statistics
func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.reconciler.Statistics(c.Request.Context())
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to compute statistics", err))
		return
	}
	httpx.OK(c, stats)
}

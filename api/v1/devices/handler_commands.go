package devices

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"go_netinv/api/v1/middleware"
	"go_netinv/internal/audit"
	"go_netinv/internal/devicecmd"
	"go_netinv/internal/httpx"
	"go_netinv/internal/store"
)

// BulkCommand handles POST /api/v1/devices/bulk-command
func (h *Handler) BulkCommand(c *gin.Context) {
	var req BulkCommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		httpx.FailErr(c, httpx.ErrParamInvalid("command cannot be empty"))
		return
	}

	results, err := h.orchestrator.ExecuteBulk(c.Request.Context(), middleware.CurrentActor(c), req.Command, req.DeviceIDs)
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to run bulk command", err))
		return
	}

	audit.SetObject(c, fmt.Sprintf("Bulk command on %d devices", len(results)))
	audit.SetChanges(c, gin.H{"command": req.Command, "device_ids": req.DeviceIDs})
	httpx.OK(c, gin.H{"results": results})
}

// ExecuteCommand handles POST /api/v1/devices/:id/commands
func (h *Handler) ExecuteCommand(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("command is required"))
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		httpx.FailErr(c, httpx.ErrParamInvalid("command cannot be empty"))
		return
	}

	rec, err := h.orchestrator.Execute(c.Request.Context(), middleware.CurrentActor(c), id, req.Command)
	if err != nil {
		if errors.Is(err, devicecmd.ErrDeviceNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to record command", err))
		return
	}

	audit.SetObject(c, fmt.Sprintf("Command on device %d: %s", id, req.Command))
	httpx.OK(c, rec)
}

// ListCommands handles GET /api/v1/devices/:id/commands
func (h *Handler) ListCommands(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	req.Page, req.PageSize = pageDefaults(req.Page, req.PageSize, 50)

	cmds, err := h.orchestrator.ListCommands(c.Request.Context(), id, store.Page{Page: req.Page, PageSize: req.PageSize})
	if err != nil {
		if errors.Is(err, devicecmd.ErrDeviceNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch commands", err))
		return
	}
	httpx.OK(c, gin.H{"items": cmds, "page": req.Page, "page_size": req.PageSize})
}

// ApplyConfiguration handles POST /api/v1/devices/:id/configurations
func (h *Handler) ApplyConfiguration(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	var req ConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	cfg, err := h.orchestrator.ApplyConfiguration(c.Request.Context(), middleware.CurrentActor(c), id, req.ConfigName, req.ConfigContent)
	if err != nil {
		if errors.Is(err, devicecmd.ErrDeviceNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to save configuration", err))
		return
	}

	audit.SetObject(c, fmt.Sprintf("Configuration %s on device %d", cfg.ConfigName, id))
	httpx.OK(c, cfg)
}

// ListConfigurations handles GET /api/v1/devices/:id/configurations
func (h *Handler) ListConfigurations(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	var req HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	req.Page, req.PageSize = pageDefaults(req.Page, req.PageSize, 50)

	cfgs, err := h.orchestrator.ListConfigurations(c.Request.Context(), id, store.Page{Page: req.Page, PageSize: req.PageSize})
	if err != nil {
		if errors.Is(err, devicecmd.ErrDeviceNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch configurations", err))
		return
	}
	httpx.OK(c, gin.H{"items": cfgs, "page": req.Page, "page_size": req.PageSize})
}

package devices

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"go_netinv/internal/devicehealth"
	"go_netinv/internal/httpx"
)

// Ping handles POST /api/v1/devices/ping
func (h *Handler) Ping(c *gin.Context) {
	var req PingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing("device_id is required"))
		return
	}

	res, err := h.reconciler.Ping(c.Request.Context(), req.DeviceID)
	if err != nil {
		if errors.Is(err, devicehealth.ErrDeviceNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to record ping", err))
		return
	}
	httpx.OK(c, res)
}

// Status handles GET /api/v1/devices/:id/status
func (h *Handler) Status(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}

	res, err := h.reconciler.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, devicehealth.ErrDeviceNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch device status", err))
		return
	}
	httpx.OK(c, res)
}

// UpdateStatus handles POST /api/v1/devices/update-status
func (h *Handler) UpdateStatus(c *gin.Context) {
	if _, err := h.reconciler.ReconcileAll(c.Request.Context()); err != nil {
		if errors.Is(err, devicehealth.ErrReconcileInProgress) {
			httpx.FailErr(c, httpx.ErrStateConflict("device status update already in progress"))
			return
		}
		httpx.FailErr(c, httpx.ErrReconcileFailed("", err))
		return
	}

	httpx.OK(c, gin.H{
		"message":   "Device statuses updated successfully",
		"timestamp": time.Now(),
	})
}

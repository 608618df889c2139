package devices

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"go_netinv/internal/audit"
	"go_netinv/internal/httpx"
	"go_netinv/internal/store"
)

// Discover handles POST /api/v1/devices/:id/discover
func (h *Handler) Discover(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	d, err := h.store.GetDevice(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("device not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch device", err))
		return
	}
	if d.SNMPCommunity == "" {
		httpx.FailErr(c, httpx.ErrParamMissing("device has no snmp_community"))
		return
	}

	descr, err := h.discoverer.SysDescr(ctx, d.IPAddress, 0, d.SNMPCommunity)
	if err != nil {
		httpx.FailErr(c, httpx.ErrExternalError("snmp discovery failed", err))
		return
	}

	now := time.Now()
	if err := h.store.RecordDiscovery(ctx, d.ID, descr, now); err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to save discovery", err))
		return
	}

	audit.SetObject(c, "Device: "+d.Name)
	audit.SetChanges(c, gin.H{"sys_descr": descr})
	httpx.OK(c, gin.H{
		"device_id":     d.ID,
		"device_name":   d.Name,
		"sys_descr":     descr,
		"discovered_at": now,
	})
}

package ws

import (
	"context"
	"time"

	socketio "github.com/googollee/go-socket.io"
)

// DeviceStatusItem is one row of the devices:initial snapshot
type DeviceStatusItem struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	IPAddress string     `json:"ip_address"`
	Status    string     `json:"status"`
	LastSeen  *time.Time `json:"last_seen"`
}

// handleRequestDevices answers request:devices with the current status of
// every device, so clients can apply devices:status updates on top of it.
func (h *Hub) handleRequestDevices(s socketio.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, err := h.snapshot(ctx)
	if err != nil {
		h.logger.WithError(err).Error("failed to load device snapshot")
		s.Emit("error", map[string]interface{}{"message": "failed to query devices"})
		return
	}
	s.Emit(EventDevicesList, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

func (h *Hub) snapshot(ctx context.Context) ([]DeviceStatusItem, error) {
	devices, err := h.devices.AllDevices(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]DeviceStatusItem, 0, len(devices))
	for _, d := range devices {
		items = append(items, DeviceStatusItem{
			ID:        d.ID,
			Name:      d.Name,
			IPAddress: d.IPAddress,
			Status:    string(d.Status),
			LastSeen:  d.LastSeen,
		})
	}
	return items, nil
}

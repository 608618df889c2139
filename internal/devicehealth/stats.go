package devicehealth

import (
	"context"
	"fmt"
	"math"

	"go_netinv/internal/model"
)

// Statistics summarizes the fleet
type Statistics struct {
	Total                int64            `json:"total"`
	Online               int64            `json:"online"`
	Offline              int64            `json:"offline"`
	Maintenance          int64            `json:"maintenance"`
	Error                int64            `json:"error"`
	DeviceTypes          int              `json:"device_types"`
	Vendors              int              `json:"vendors"`
	DeviceTypesBreakdown map[string]int64 `json:"device_types_breakdown"`
	VendorsBreakdown     map[string]int64 `json:"vendors_breakdown"`
	UptimePercentage     float64          `json:"uptime_percentage"`
}

// UptimePercentage is online/total*100 rounded to two decimals, 0 for an
// empty fleet.
func UptimePercentage(online, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(online)/float64(total)*100*100) / 100
}

// Statistics computes fleet counts from the store
func (r *Reconciler) Statistics(ctx context.Context) (*Statistics, error) {
	return ComputeStatistics(ctx, r.store)
}

// ComputeStatistics computes fleet counts from st
func ComputeStatistics(ctx context.Context, st Store) (*Statistics, error) {
	total, err := st.CountDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("count devices: %w", err)
	}
	byStatus, err := st.CountDevicesBy(ctx, "status")
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	byType, err := st.CountDevicesBy(ctx, "device_type")
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	byVendor, err := st.CountDevicesBy(ctx, "vendor")
	if err != nil {
		return nil, fmt.Errorf("count by vendor: %w", err)
	}

	online := byStatus[string(model.DeviceStatusOnline)]
	return &Statistics{
		Total:                total,
		Online:               online,
		Offline:              byStatus[string(model.DeviceStatusOffline)],
		Maintenance:          byStatus[string(model.DeviceStatusMaintenance)],
		Error:                byStatus[string(model.DeviceStatusError)],
		DeviceTypes:          len(byType),
		Vendors:              len(byVendor),
		DeviceTypesBreakdown: byType,
		VendorsBreakdown:     byVendor,
		UptimePercentage:     UptimePercentage(online, total),
	}, nil
}

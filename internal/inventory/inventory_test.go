package inventory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go_netinv/internal/model"
	"go_netinv/internal/store"
	"go_netinv/internal/testutil"
)

const sample = `devices:
  - name: core-sw-01
    device_type: switch
    ip_address: 10.0.0.2
    vendor: cisco
    ssh_username: netops
    ssh_password: secret
  - name: edge-rtr-01
    device_type: router
    ip_address: 2001:db8::1
    ssh_port: 2222
    status: maintenance
  - name: broken
    device_type: toaster
    ip_address: 10.0.0.9
  - name: existing
    device_type: firewall
    ip_address: 10.0.0.3
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Devices) != 4 {
		t.Fatalf("Expected 4 devices, got %d", len(f.Devices))
	}
	if f.Devices[1].SSHPort != 2222 {
		t.Errorf("Expected ssh_port 2222, got %d", f.Devices[1].SSHPort)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown key", "devices:\n  - name: x\n    colour: red\n"},
		{"bad shape", "devices: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.in)); err == nil {
				t.Error("Expected parse error")
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(f.Devices) != 0 {
		t.Errorf("Expected no devices, got %d", len(f.Devices))
	}
}

func TestDeviceEntry_Device(t *testing.T) {
	tests := []struct {
		name    string
		entry   DeviceEntry
		wantErr bool
	}{
		{"valid", DeviceEntry{Name: "r1", DeviceType: "router", IPAddress: "10.0.0.1"}, false},
		{"missing name", DeviceEntry{DeviceType: "router", IPAddress: "10.0.0.1"}, true},
		{"bad ip", DeviceEntry{Name: "r1", DeviceType: "router", IPAddress: "10.0.0"}, true},
		{"bad type", DeviceEntry{Name: "r1", DeviceType: "hub", IPAddress: "10.0.0.1"}, true},
		{"bad status", DeviceEntry{Name: "r1", DeviceType: "router", IPAddress: "10.0.0.1", Status: "sleeping"}, true},
		{"bad port", DeviceEntry{Name: "r1", DeviceType: "router", IPAddress: "10.0.0.1", SSHPort: 70000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.entry.Device()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Device() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && d.Status != model.DeviceStatusOffline {
				t.Errorf("Expected default status offline, got %s", d.Status)
			}
		})
	}
}

func TestImport(t *testing.T) {
	gdb := testutil.NewDB(t)
	ctx := testutil.Context(t)
	testutil.SeedDevice(t, gdb, model.Device{Name: "existing"})

	path := filepath.Join(t.TempDir(), "devices.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("Failed to write inventory: %v", err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	st := store.New(gdb)
	rep, err := Import(ctx, st, f, nil)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(rep.Created) != 2 || len(rep.Skipped) != 1 || len(rep.Invalid) != 1 {
		t.Errorf("Unexpected report: %+v", rep)
	}
	if _, ok := rep.Invalid["broken"]; !ok {
		t.Errorf("Expected broken entry to be invalid, got %v", rep.Invalid)
	}

	devices, total, err := st.ListDevices(ctx, store.DeviceFilter{})
	if err != nil {
		t.Fatalf("ListDevices failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected 3 devices, got %d", total)
	}
	for _, d := range devices {
		if d.Name == "edge-rtr-01" && (d.SSHPort != 2222 || d.Status != model.DeviceStatusMaintenance) {
			t.Errorf("Unexpected imported device: %+v", d)
		}
		if d.Name == "core-sw-01" && d.SSHPort != model.DefaultSSHPort {
			t.Errorf("Expected default port, got %d", d.SSHPort)
		}
	}

	// importing again only skips
	rep, err = Import(ctx, st, f, nil)
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}
	if len(rep.Created) != 0 || len(rep.Skipped) != 3 {
		t.Errorf("Expected everything skipped, got %+v", rep)
	}
}

// Package inventory imports devices from a YAML inventory file.
//
//	devices:
//	  - name: core-sw-01
//	    device_type: switch
//	    ip_address: 10.0.0.2
//	    vendor: cisco
//	    ssh_username: netops
//	    ssh_password: secret
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"go_netinv/internal/model"
	"go_netinv/internal/store"
	"go_netinv/internal/util"
)

// DeviceEntry is one device in an inventory file
type DeviceEntry struct {
	Name          string `yaml:"name"`
	DeviceType    string `yaml:"device_type"`
	IPAddress     string `yaml:"ip_address"`
	MACAddress    string `yaml:"mac_address"`
	Location      string `yaml:"location"`
	Vendor        string `yaml:"vendor"`
	Model         string `yaml:"model"`
	OSVersion     string `yaml:"os_version"`
	Status        string `yaml:"status"`
	SSHPort       int    `yaml:"ssh_port"`
	SSHUsername   string `yaml:"ssh_username"`
	SSHPassword   string `yaml:"ssh_password"`
	SNMPCommunity string `yaml:"snmp_community"`
	Description   string `yaml:"description"`
}

// File is a parsed inventory
type File struct {
	Devices []DeviceEntry `yaml:"devices"`
}

// Parse decodes an inventory; unknown keys are rejected
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse inventory: %w", err)
	}
	return &f, nil
}

// Load reads and parses an inventory file
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inventory: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Device validates the entry and converts it to a model
func (e DeviceEntry) Device() (*model.Device, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	if !model.ValidIP(e.IPAddress) {
		return nil, fmt.Errorf("invalid ip_address %q", e.IPAddress)
	}
	dt := model.DeviceType(e.DeviceType)
	if !dt.Valid() {
		return nil, fmt.Errorf("invalid device_type %q", e.DeviceType)
	}
	status := model.DeviceStatus(e.Status)
	if status == "" {
		status = model.DeviceStatusOffline
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", e.Status)
	}
	if e.SSHPort < 0 || e.SSHPort > 65535 {
		return nil, fmt.Errorf("invalid ssh_port %d", e.SSHPort)
	}

	return &model.Device{
		Name:          name,
		DeviceType:    dt,
		IPAddress:     e.IPAddress,
		MACAddress:    e.MACAddress,
		Location:      e.Location,
		Vendor:        e.Vendor,
		Model:         e.Model,
		OSVersion:     e.OSVersion,
		Status:        status,
		SSHPort:       e.SSHPort,
		SSHUsername:   e.SSHUsername,
		SSHPassword:   e.SSHPassword,
		SNMPCommunity: e.SNMPCommunity,
		Description:   e.Description,
	}, nil
}

// Creator is the store subset Import needs
type Creator interface {
	CreateDevice(ctx context.Context, d *model.Device) error
}

// Report is the outcome of an import
type Report struct {
	Created []string
	Skipped []string          // name already taken
	Invalid map[string]string // entry -> reason
}

// Import creates every valid entry whose name is not taken yet. Invalid
// entries are reported and do not stop the import; a store failure does.
func Import(ctx context.Context, c Creator, f *File, createdBy *int) (*Report, error) {
	log := util.WithComponent("inventory")
	rep := &Report{Invalid: map[string]string{}}

	for i, entry := range f.Devices {
		d, err := entry.Device()
		if err != nil {
			key := entry.Name
			if key == "" {
				key = fmt.Sprintf("#%d", i+1)
			}
			rep.Invalid[key] = err.Error()
			continue
		}
		d.CreatedByID = createdBy

		err = c.CreateDevice(ctx, d)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			rep.Skipped = append(rep.Skipped, d.Name)
		case err != nil:
			return rep, fmt.Errorf("create device %s: %w", d.Name, err)
		default:
			rep.Created = append(rep.Created, d.Name)
		}
	}

	log.WithField("created", len(rep.Created)).
		WithField("skipped", len(rep.Skipped)).
		WithField("invalid", len(rep.Invalid)).
		Info("inventory import finished")
	return rep, nil
}

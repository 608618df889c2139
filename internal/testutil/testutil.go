// Package testutil holds shared fixtures for package tests: an in-memory
// database, a throwaway redis and seed helpers.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"go_netinv/internal/db"
	"go_netinv/internal/model"
)

var dbSeq int64

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	// named + shared cache so every connection of this test sees the same data
	dsn := fmt.Sprintf("file:netinv_test_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", atomic.AddInt64(&dbSeq, 1))
	gdb, err := db.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	return gdb
}

// NewRedis starts a miniredis server and returns a client for it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// Context returns a context cancelled when the test ends, bounded to 30s.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// SeedDevice inserts a device. Zero-valued fields get sensible defaults.
func SeedDevice(t *testing.T, gdb *gorm.DB, d model.Device) *model.Device {
	t.Helper()

	if d.DeviceType == "" {
		d.DeviceType = model.DeviceTypeRouter
	}
	if d.IPAddress == "" {
		d.IPAddress = "127.0.0.1"
	}
	if d.Status == "" {
		d.Status = model.DeviceStatusOffline
	}
	if d.SSHPort == 0 {
		d.SSHPort = model.DefaultSSHPort
	}
	if err := gdb.Create(&d).Error; err != nil {
		t.Fatalf("seeding device %s: %v", d.Name, err)
	}
	return &d
}

// SeedUser inserts a user with the given role and a fixed password hash.
func SeedUser(t *testing.T, gdb *gorm.DB, username, role, passwordHash string) *model.User {
	t.Helper()

	u := model.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		Status:       model.UserStatusActive,
	}
	if err := gdb.Create(&u).Error; err != nil {
		t.Fatalf("seeding user %s: %v", username, err)
	}
	return &u
}

package cache

import (
	"testing"
	"time"

	"go_netinv/internal/testutil"
)

type observation struct {
	DeviceID int    `json:"device_id"`
	Status   string `json:"status"`
}

func TestStatusCache_Observation(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	c := NewStatusCache(client, time.Minute)
	ctx := testutil.Context(t)

	var out observation
	found, err := c.GetObservation(ctx, 1, &out)
	if err != nil || found {
		t.Fatalf("Expected miss, got found=%v err=%v", found, err)
	}

	if err := c.PutObservation(ctx, 1, observation{DeviceID: 1, Status: "online"}); err != nil {
		t.Fatalf("PutObservation() failed: %v", err)
	}

	found, err = c.GetObservation(ctx, 1, &out)
	if err != nil || !found {
		t.Fatalf("Expected hit, got found=%v err=%v", found, err)
	}
	if out.Status != "online" {
		t.Errorf("Expected online, got %s", out.Status)
	}

	mr.FastForward(2 * time.Minute)
	if found, _ := c.GetObservation(ctx, 1, &out); found {
		t.Error("Expected observation to expire")
	}
}

func TestStatusCache_TryLock(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	c := NewStatusCache(client, time.Minute)
	ctx := testutil.Context(t)

	release, ok, err := c.TryLock(ctx, "reconcile", time.Minute)
	if err != nil || !ok {
		t.Fatalf("Expected first lock to succeed, got ok=%v err=%v", ok, err)
	}

	_, ok, err = c.TryLock(ctx, "reconcile", time.Minute)
	if err != nil {
		t.Fatalf("TryLock() failed: %v", err)
	}
	if ok {
		t.Error("Expected second lock to be refused")
	}

	release()
	if mr.Exists("netinv:lock:reconcile") {
		t.Error("Expected lock key to be deleted on release")
	}

	release2, ok, _ := c.TryLock(ctx, "reconcile", time.Minute)
	if !ok {
		t.Error("Expected lock to be available after release")
	}
	release2()
}

func TestStatusCache_ReleaseDoesNotStealExpiredLock(t *testing.T) {
	client, mr := testutil.NewRedis(t)
	c := NewStatusCache(client, time.Minute)
	ctx := testutil.Context(t)

	release, ok, _ := c.TryLock(ctx, "reconcile", time.Second)
	if !ok {
		t.Fatal("Expected lock")
	}
	mr.FastForward(2 * time.Second)

	_, ok, _ = c.TryLock(ctx, "reconcile", time.Minute)
	if !ok {
		t.Fatal("Expected lock after expiry")
	}

	release()
	if !mr.Exists("netinv:lock:reconcile") {
		t.Error("Stale release removed another holder's lock")
	}
}

func TestStatusCache_Disabled(t *testing.T) {
	var nilCache *StatusCache
	ctx := testutil.Context(t)

	if err := nilCache.PutObservation(ctx, 1, observation{}); err != nil {
		t.Errorf("Expected no-op, got %v", err)
	}
	release, ok, err := NewStatusCache(nil, time.Minute).TryLock(ctx, "reconcile", time.Minute)
	if err != nil || !ok {
		t.Errorf("Expected lock to be granted without redis, got ok=%v err=%v", ok, err)
	}
	release()
}

package fanout

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_IndexAlignedErrors(t *testing.T) {
	p, err := New("test", 4)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer p.Release()

	boom := errors.New("boom")
	errs := p.Map(5, func(i int) error {
		switch i {
		case 1:
			return boom
		case 3:
			panic("device exploded")
		}
		return nil
	})

	if len(errs) != 5 {
		t.Fatalf("Expected 5 results, got %d", len(errs))
	}
	for _, i := range []int{0, 2, 4} {
		if errs[i] != nil {
			t.Errorf("Task %d: expected nil error, got %v", i, errs[i])
		}
	}
	if !errors.Is(errs[1], boom) {
		t.Errorf("Task 1: expected boom, got %v", errs[1])
	}
	if !errors.Is(errs[3], ErrPanic) {
		t.Errorf("Task 3: expected ErrPanic, got %v", errs[3])
	}
}

func TestMap_BoundsConcurrency(t *testing.T) {
	p, err := New("test", 2)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer p.Release()

	var running, peak int32
	p.Map(8, func(i int) error {
		n := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return nil
	})

	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent tasks, saw %d", peak)
	}
	if p.Cap() != 2 {
		t.Errorf("Expected cap 2, got %d", p.Cap())
	}
}

func TestMap_Empty(t *testing.T) {
	p, _ := New("test", 1)
	defer p.Release()

	if errs := p.Map(0, func(int) error { return nil }); len(errs) != 0 {
		t.Errorf("Expected no results, got %d", len(errs))
	}
}

func TestNew_InvalidSize(t *testing.T) {
	if _, err := New("test", 0); err == nil {
		t.Error("Expected error for zero size")
	}
}

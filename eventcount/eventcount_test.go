// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eventcount

import (
	"sync"
	"testing"
	"time"
)

func fastOps() Ops {
	ops := DefaultOps()
	ops.BusyLoopIter = 1
	ops.InitialWait = time.Millisecond
	return ops
}

func TestEventCount32ValueAndInc(t *testing.T) {
	ec := NewEventCount32(fastOps())
	if ec.Value() != 0 {
		t.Fatalf("Value() = %d, want 0", ec.Value())
	}
	ec.Inc()
	if ec.Value() != 1 {
		t.Fatalf("Value() = %d, want 1", ec.Value())
	}
	ec.Add(41)
	if ec.Value() != 42 {
		t.Fatalf("Value() = %d, want 42", ec.Value())
	}
}

func TestEventCount32WaitWakesOnChange(t *testing.T) {
	ec := NewEventCount32(fastOps())
	done := make(chan error, 1)
	go func() {
		done <- ec.Wait(0, Infinite)
	}()

	time.Sleep(20 * time.Millisecond)
	ec.Inc()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait returned error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait never returned after Inc")
	}
}

func TestEventCount32WaitTimesOut(t *testing.T) {
	ec := NewEventCount32(fastOps())
	deadline := ec.Deadline(10 * time.Millisecond)
	if err := ec.Wait(0, deadline); err != ErrTimeout {
		t.Fatalf("Wait() = %v, want ErrTimeout", err)
	}
}

func TestEventCount32WaitReturnsImmediatelyIfAlreadyChanged(t *testing.T) {
	ec := NewEventCount32(fastOps())
	ec.Inc()
	if err := ec.Wait(0, Infinite); err != nil {
		t.Fatalf("Wait() = %v, want nil (value already changed)", err)
	}
}

func TestEventCount32WaitPredShortCircuits(t *testing.T) {
	ec := NewEventCount32(fastOps())
	calls := 0
	reason, err := ec.WaitPred(0, ec.Deadline(time.Second), func(current uint32, deadline *time.Time) int {
		calls++
		return 7
	})
	if err != nil {
		t.Fatalf("WaitPred() err = %v, want nil", err)
	}
	if reason != 7 {
		t.Fatalf("WaitPred() reason = %d, want 7 (verbatim pred return)", reason)
	}
	if calls == 0 {
		t.Fatal("predicate was never invoked")
	}
}

func TestEventCount32ManyWaitersOneWake(t *testing.T) {
	ec := NewEventCount32(fastOps())
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ec.Wait(0, ec.Deadline(2*time.Second)); err != nil {
				t.Errorf("Wait() = %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	ec.Inc()
	wg.Wait()
}

func TestEventCount64ValueAndInc(t *testing.T) {
	ec := NewEventCount64(fastOps())
	ec.Add(5)
	if ec.Value() != 5 {
		t.Fatalf("Value() = %d, want 5", ec.Value())
	}
	ec.Inc()
	if ec.Value() != 6 {
		t.Fatalf("Value() = %d, want 6", ec.Value())
	}
	if ec.HasWaiters() {
		t.Fatal("HasWaiters() should start false")
	}
}

func TestEventCount64WaitWakesOnChange(t *testing.T) {
	ec := NewEventCount64(fastOps())
	done := make(chan error, 1)
	go func() {
		done <- ec.Wait(0, Infinite)
	}()

	time.Sleep(20 * time.Millisecond)
	ec.Inc()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Wait returned error %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait never returned after Inc")
	}
}

func TestEventCount64WaitTimesOut(t *testing.T) {
	ec := NewEventCount64(fastOps())
	deadline := ec.Deadline(10 * time.Millisecond)
	if err := ec.Wait(0, deadline); err != ErrTimeout {
		t.Fatalf("Wait() = %v, want ErrTimeout", err)
	}
}

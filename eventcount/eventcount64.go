// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package eventcount

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
)

const ec64FlagBit = uint64(1)

// EventCount64 is a 64-bit event count: the waiters-present flag
// occupies the least significant bit — the low four bytes of the word on
// a little-endian platform — the value is the counter shifted right by
// one. Every Add moves the counter by delta*2 so ordinary increments
// never disturb the flag bit.
//
// The zero value is not usable; construct with [NewEventCount64].
type EventCount64 struct {
	word atomix.Uint64
	ops  Ops

	mu sync.Mutex
	ch chan struct{}
}

// NewEventCount64 returns a counter initialized to zero.
func NewEventCount64(ops Ops) *EventCount64 {
	return &EventCount64{ops: ops, ch: make(chan struct{})}
}

// Value returns the current counter value, loaded with acquire
// semantics.
func (ec *EventCount64) Value() uint64 {
	return ec.word.LoadAcquire() >> 1
}

// HasWaiters reports whether the waiters-present flag is currently set.
func (ec *EventCount64) HasWaiters() bool {
	return ec.word.LoadAcquire()&ec64FlagBit != 0
}

func (ec *EventCount64) notify() {
	ec.mu.Lock()
	close(ec.ch)
	ec.ch = make(chan struct{})
	ec.mu.Unlock()
}

// Inc increments the value by 1. Equivalent to Add(1).
func (ec *EventCount64) Inc() { ec.Add(1) }

// Add adds delta to the value, issuing a store-fence before the update.
// If the waiters-present flag was observed set immediately before this
// update, wakes any goroutine parked in Wait/WaitPred.
func (ec *EventCount64) Add(delta uint64) {
	fence.FenceStore()
	prev := fence.Faa64(&ec.word, int64(delta)<<1)
	if prev&ec64FlagBit != 0 {
		ec.notify()
	}
}

// Deadline is a convenience wrapper around ec's Ops.Deadline.
func (ec *EventCount64) Deadline(timeout time.Duration) time.Time {
	return ec.ops.Deadline(timeout)
}

// Wait blocks until the value differs from oldValue, the deadline
// passes ([ErrTimeout]), or a spurious wakeup is resolved by re-checking
// the value. Pass [Infinite] for no deadline.
func (ec *EventCount64) Wait(oldValue uint64, deadline time.Time) error {
	_, err := ec.WaitPred(oldValue, deadline, nil)
	return err
}

// WaitPred is Wait, but before each park it invokes pred(currentValue,
// &deadline); see [EventCount32.WaitPred] for the short-circuit contract.
// A non-zero pred return is handed back as reason verbatim, never
// collapsed into ErrTimeout.
func (ec *EventCount64) WaitPred(oldValue uint64, deadline time.Time, pred func(current uint64, deadline *time.Time) int) (reason int, err error) {
	started := ec.ops.Now()
	iter := 0
	for {
		if ec.Value() != oldValue {
			return 0, nil
		}
		if !deadline.IsZero() && ec.ops.Now().After(deadline) {
			return 0, ErrTimeout
		}
		for i := 0; i < ec.ops.BusyLoopIter; i++ {
			fence.CompilerBarrier()
			if ec.Value() != oldValue {
				return 0, nil
			}
		}

		if pred != nil {
			if r := pred(ec.Value(), &deadline); r != 0 {
				return r, nil
			}
		}

		ec.mu.Lock()
		ch := ec.ch
		ec.mu.Unlock()

		fence.Or64(&ec.word, ec64FlagBit)
		if ec.Value() != oldValue {
			return 0, nil
		}

		sleep := escalationWait(ec.ops, iter, started)
		if !deadline.IsZero() {
			if remaining := deadline.Sub(ec.ops.Now()); remaining < sleep {
				sleep = remaining
			}
		}
		if sleep <= 0 {
			return 0, ErrTimeout
		}
		select {
		case <-ch:
		case <-time.After(sleep):
		}
		iter++
	}
}

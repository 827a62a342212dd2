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

const ec32FlagBit = uint32(1) << 31
const ec32ValueMask = ec32FlagBit - 1

// EventCount32 is a 32-bit event count: the waiters-present flag occupies
// the most significant bit, the value the low 31 bits.
//
// The zero value is not usable; construct with [NewEventCount32].
type EventCount32 struct {
	word atomix.Uint32
	ops  Ops

	mu sync.Mutex
	ch chan struct{}
}

// NewEventCount32 returns a counter initialized to zero.
func NewEventCount32(ops Ops) *EventCount32 {
	return &EventCount32{ops: ops, ch: make(chan struct{})}
}

// Value returns the current counter value, loaded with acquire
// semantics. Never exceeds [math.MaxInt32].
func (ec *EventCount32) Value() uint32 {
	return ec.word.LoadAcquire() & ec32ValueMask
}

// HasWaiters reports whether the waiters-present flag is currently set.
func (ec *EventCount32) HasWaiters() bool {
	return ec.word.LoadAcquire()&ec32FlagBit != 0
}

func (ec *EventCount32) notify() {
	ec.mu.Lock()
	close(ec.ch)
	ec.ch = make(chan struct{})
	ec.mu.Unlock()
}

// Inc increments the value by 1. Equivalent to Add(1).
func (ec *EventCount32) Inc() { ec.Add(1) }

// Add adds delta to the value, issuing a store-fence before the update
// per §4.I. If the waiters-present flag was observed set immediately
// before this update, wakes any goroutine parked in Wait/WaitPred.
//
// ops.SingleProducer documents caller intent (a single-producer
// discipline can use a cheaper non-atomic RMW on TSO platforms) but
// changes nothing about the instructions Go emits here: there is no
// portable non-atomic fast path available from this language, so both
// modes perform the same atomic fetch-and-add.
func (ec *EventCount32) Add(delta uint32) {
	fence.FenceStore()
	prev := fence.Faa32(&ec.word, int32(delta))
	if prev&ec32FlagBit != 0 {
		ec.notify()
	}
}

// Deadline is a convenience wrapper around ec's Ops.Deadline.
func (ec *EventCount32) Deadline(timeout time.Duration) time.Time {
	return ec.ops.Deadline(timeout)
}

// Wait blocks until the value differs from oldValue, the deadline
// passes ([ErrTimeout]), or a spurious wakeup is resolved by re-checking
// the value. Pass [Infinite] for no deadline.
func (ec *EventCount32) Wait(oldValue uint32, deadline time.Time) error {
	_, err := ec.WaitPred(oldValue, deadline, nil)
	return err
}

// WaitPred is Wait, but before each park it invokes pred(currentValue,
// &deadline); pred may mutate the deadline (the hook for composite wake
// conditions). A non-zero pred return short-circuits the wait, and that
// return value is handed back to the caller verbatim as reason — the
// caller's own reason codes are never collapsed into a single timeout
// bit, so a pred that distinguishes several wake causes can still tell
// them apart after WaitPred returns. reason is always 0 when the wait
// ended for a reason other than pred (value change, timeout).
func (ec *EventCount32) WaitPred(oldValue uint32, deadline time.Time, pred func(current uint32, deadline *time.Time) int) (reason int, err error) {
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

		fence.Or32(&ec.word, ec32FlagBit)
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

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package eventcount implements futex-backed event counts: a counter
// packed with a single "waiters present" flag bit, so a producer only
// pays the cost of a wake syscall (here, a channel close) when a waiter
// actually parked.
//
// [EventCount32] packs the flag into the word's most significant bit;
// [EventCount64] packs it into the least significant bit, placing it in
// the low four bytes of the word on a little-endian platform — the
// layout the original futex-based design needs to address the flag with
// a 32-bit futex primitive. Go exposes no public futex syscall, so the
// park/wake step itself is a channel-close broadcast scoped to each
// EventCount rather than an address-generic platform primitive; the
// escalation policy (spin, then arm the flag and block with a growing
// timeout, then switch to an unbounded block once one second of real
// time has passed) is preserved exactly.
package eventcount

import (
	"errors"
	"time"
)

// Infinite, passed as a Wait/WaitPred deadline, requests no timeout.
var Infinite = time.Time{}

// ErrTimeout is returned by Wait/WaitPred when the deadline passes
// before the counter changes.
var ErrTimeout = errors.New("eventcount: deadline exceeded")

// Ops carries the tunables and clock binding shared by an event count's
// wait loop.
type Ops struct {
	Now                func() time.Time
	BusyLoopIter        int
	InitialWait         time.Duration
	TimeoutScaleFactor  int
	TimeoutShiftCount   uint
	SingleProducer      bool // documents intent only; see EventCount32.Add
}

const (
	// DefaultBusyLoopIter is the spin count before a waiter arms the
	// flag and blocks.
	DefaultBusyLoopIter = 100
	// DefaultInitialWait is the first park timeout slice.
	DefaultInitialWait = 2 * time.Millisecond
	// DefaultTimeoutScaleFactor and DefaultTimeoutShiftCount compute
	// successive park slices as InitialWait*((iter*scale)>>shift + 1).
	DefaultTimeoutScaleFactor = 1
	DefaultTimeoutShiftCount  = 0
)

// DefaultOps returns the tunables from §6's configuration constants.
func DefaultOps() Ops {
	return Ops{
		Now:                time.Now,
		BusyLoopIter:       DefaultBusyLoopIter,
		InitialWait:        DefaultInitialWait,
		TimeoutScaleFactor: DefaultTimeoutScaleFactor,
		TimeoutShiftCount:  DefaultTimeoutShiftCount,
	}
}

// Deadline computes the absolute deadline timeout from now, or
// [Infinite] if timeout is negative.
func (ops Ops) Deadline(timeout time.Duration) time.Time {
	if timeout < 0 {
		return Infinite
	}
	return ops.Now().Add(timeout)
}

func escalationWait(ops Ops, iter int, started time.Time) time.Duration {
	if ops.Now().Sub(started) >= time.Second {
		return time.Hour
	}
	scaled := (uint64(iter) * uint64(ops.TimeoutScaleFactor)) >> ops.TimeoutShiftCount
	return ops.InitialWait * time.Duration(scaled+1)
}

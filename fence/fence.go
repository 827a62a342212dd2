// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fence supplements [code.hybscloud.com/atomix] with the handful of
// whole-system ordering primitives and read-modify-write operations that the
// width-typed atomic cells don't expose directly: store/load/full fences, a
// compiler barrier, and CAS-loop OR/AND/bit-test-and-set/fetch-and-store for
// the widths every other conc package needs.
//
// Every higher kernel in this module reasons about ordering only through
// these primitives and the underlying atomix cells, per the atomic
// substrate contract.
package fence

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// HasDoubleWidthCAS reports whether a double-width compare-and-swap is
// available on this build. atomix.Uint128 makes it unconditionally
// available here, so MPMC stack and queue variants are always linked.
const HasDoubleWidthCAS = true

// FenceStore requests that every store preceding the call be visible to
// other threads before any store that follows it. Producers call this
// before publishing a pointer another thread will ingest.
func FenceStore() {
	atomix.FenceStore()
}

// FenceLoad requests that every load following the call observes the
// effects of stores that were visible at the time of the call. Consumers
// call this after acquiring a freshly-published pointer and before its
// first dereference.
func FenceLoad() {
	atomix.FenceLoad()
}

// FenceFull requests store-load ordering in both directions: a full,
// system-wide fence.
func FenceFull() {
	atomix.FenceFull()
}

// CompilerBarrier prevents the compiler from reordering memory accesses
// across the call without requesting any hardware ordering. Used by
// [code.hybscloud.com/conc.Backoff] between spin iterations.
func CompilerBarrier() {
	atomix.CompilerBarrier()
}

// Or64 atomically ORs mask into *addr and returns the previous value.
func Or64(addr *atomix.Uint64, mask uint64) uint64 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, prev|mask) {
			return prev
		}
		sw.Once()
	}
}

// And64 atomically ANDs mask into *addr and returns the previous value.
func And64(addr *atomix.Uint64, mask uint64) uint64 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, prev&mask) {
			return prev
		}
		sw.Once()
	}
}

// Bts64 atomically tests and sets bit within *addr, returning its
// previous value.
func Bts64(addr *atomix.Uint64, bit uint) bool {
	mask := uint64(1) << bit
	prev := Or64(addr, mask)
	return prev&mask != 0
}

// Fas64 atomically stores val into *addr and returns the previous value.
func Fas64(addr *atomix.Uint64, val uint64) uint64 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, val) {
			return prev
		}
		sw.Once()
	}
}

// Faa64 atomically adds delta to *addr and returns the previous value.
func Faa64(addr *atomix.Uint64, delta int64) uint64 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, uint64(int64(prev)+delta)) {
			return prev
		}
		sw.Once()
	}
}

// Or32 is the 32-bit sibling of [Or64], used by the phase-fair and packed
// reader-writer locks and by the 32-bit event count.
func Or32(addr *atomix.Uint32, mask uint32) uint32 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, prev|mask) {
			return prev
		}
		sw.Once()
	}
}

// And32 is the 32-bit sibling of [And64].
func And32(addr *atomix.Uint32, mask uint32) uint32 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, prev&mask) {
			return prev
		}
		sw.Once()
	}
}

// Bts32 is the 32-bit sibling of [Bts64].
func Bts32(addr *atomix.Uint32, bit uint) bool {
	mask := uint32(1) << bit
	prev := Or32(addr, mask)
	return prev&mask != 0
}

// Fas32 is the 32-bit sibling of [Fas64].
func Fas32(addr *atomix.Uint32, val uint32) uint32 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, val) {
			return prev
		}
		sw.Once()
	}
}

// Faa32 is the 32-bit sibling of [Faa64].
func Faa32(addr *atomix.Uint32, delta int32) uint32 {
	sw := spin.Wait{}
	for {
		prev := addr.LoadAcquire()
		if addr.CompareAndSwapAcqRel(prev, uint32(int32(prev)+delta)) {
			return prev
		}
		sw.Once()
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package conc is the root of a concurrency primitives library: proven
// lock-free, wait-free, and fine-grained blocking algorithms (Treiber,
// Michael–Scott, Michael's hazard pointers, Brandenburg–Anderson
// phase-fair locks) built on a portable atomic-operations substrate.
//
// # Components
//
//	conc/fence       atomic/fence substrate extension (CAS-loop RMWs, fences)
//	conc/hazard      hazard-pointer safe memory reclamation
//	conc/stack       Treiber stack family (UPMC, MPMC)
//	conc/queue       Michael–Scott FIFO family (SPSC, MPMC)
//	conc/cow         copy-on-write publication array
//	conc/bitmap      concurrent bitmap
//	conc/rwlock      centralized, phase-fair, and packed reader-writer locks
//	conc/eventcount  futex-backed event counts
//	conc/allocator   allocator function-vector abstraction
//
// # Backoff
//
// The components' own internal retry loops spin with spin.Wait. Callers'
// contended retry loops around the try-variants can use [Backoff]:
//
//	b := conc.NewBackoff()
//	for {
//	    if s.TryPush(node) {
//	        break
//	    }
//	    b.Wait()
//	}
//
// # Composing hazard pointers with a Treiber stack
//
//	dom := hazard.NewDomain(1, 100, func(p unsafe.Pointer, _ any) {})
//	rec := dom.Register()
//	defer dom.Unregister(rec)
//
//	var s stack.UPMC[int]
//	s.Push(&stack.Node[int]{Value: 42})
//
//	n, ok := s.Pop()
//	if ok {
//	    rec.Retire(unsafe.Pointer(n), nil)
//	}
//	rec.Clear()
//
// # Error handling
//
// Operations that cannot proceed immediately (empty container, try-lock
// or try-push contention) report it through a false bool result rather
// than blocking or panicking; none of them returns an error. [ErrWouldBlock]
// (an alias for [iox.ErrWouldBlock]) and [IsWouldBlock] are re-exported for
// callers that translate such a result into the ecosystem's error
// convention:
//
//	if !s.TryPush(node) {
//	    return conc.ErrWouldBlock
//	}
//
// # Thread safety
//
// Every component is fully parameterized by its handle: no package-level
// mutable state. Access-pattern constraints (single producer, single
// consumer, and so on) are documented per type and are not enforced at
// runtime — violating them is undefined behavior, by contract.
//
// # Race detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channel, WaitGroup) but cannot observe happens-before relationships
// established purely through atomic acquire/release orderings on separate
// variables. [RaceEnabled] reports whether the race detector is active, so
// a stress test can skip itself under -race for that reason; correctness should be
// additionally checked with -race-free stress runs and, ideally, formal
// tools (TLA+, SPIN).
//
// # Dependencies
//
// This module uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering (including the 128-bit cell used for double-width CAS), and
// [code.hybscloud.com/spin] for CPU pause instructions.
package conc

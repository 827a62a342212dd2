// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stack

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
	"code.hybscloud.com/spin"
)

// MPMC is a lock-free LIFO stack safe for any number of concurrent
// pushers and poppers. It packs the head pointer and a monotonic
// generation counter into a single double-width CAS ([atomix.Uint128]),
// which defeats the ABA problem that an unprotected single-width CAS
// head (as in [UPMC]) is vulnerable to: requires
// [code.hybscloud.com/conc/fence.HasDoubleWidthCAS].
//
// The zero value is an empty stack.
type MPMC[T any] struct {
	head atomix.Uint128 // lo: head pointer bits. hi: generation.
}

// Push adds entry to the top of the stack, retrying its double-width CAS
// until it succeeds.
func (s *MPMC[T]) Push(entry *Node[T]) {
	sw := spin.Wait{}
	for {
		lo, hi := s.head.LoadAcquire()
		entry.next = nodePtr[T](uintptr(lo))
		fence.FenceStore()
		if s.head.CompareAndSwapAcqRel(lo, hi, uint64(ptrOf(entry)), hi) {
			return
		}
		sw.Once()
	}
}

// TryPush attempts a single double-width CAS to push entry, returning
// false on contention without retrying.
func (s *MPMC[T]) TryPush(entry *Node[T]) bool {
	lo, hi := s.head.LoadAcquire()
	entry.next = nodePtr[T](uintptr(lo))
	fence.FenceStore()
	return s.head.CompareAndSwapAcqRel(lo, hi, uint64(ptrOf(entry)), hi)
}

// Pop removes and returns the top entry, or (nil, false) if the stack is
// empty. Every successful Pop bumps the generation counter, so a pusher
// that raced a freed-and-reallocated entry back onto the same address
// cannot be mistaken by a concurrent Pop's CAS for the state it observed
// before the pop — no external SMR is required for the head pointer
// itself, though the popped entry's contents are the caller's concern.
func (s *MPMC[T]) Pop() (*Node[T], bool) {
	sw := spin.Wait{}
	for {
		lo, hi := s.head.LoadAcquire()
		if lo == 0 {
			return nil, false
		}
		node := nodePtr[T](uintptr(lo))
		fence.FenceLoad()
		next := node.next
		if s.head.CompareAndSwapAcqRel(lo, hi, uint64(ptrOf(next)), hi+1) {
			return node, true
		}
		sw.Once()
	}
}

// TryPop attempts a single double-width CAS to pop, returning
// (nil, false) both when the stack is empty and when the CAS lost a
// race.
func (s *MPMC[T]) TryPop() (*Node[T], bool) {
	lo, hi := s.head.LoadAcquire()
	if lo == 0 {
		return nil, false
	}
	node := nodePtr[T](uintptr(lo))
	fence.FenceLoad()
	next := node.next
	if s.head.CompareAndSwapAcqRel(lo, hi, uint64(ptrOf(next)), hi+1) {
		return node, true
	}
	return nil, false
}

// BatchPop atomically detaches the entire chain, bumping the generation
// counter, and returns its former top (or nil if the stack was empty).
// Walk Node.Next to traverse the detached chain.
func (s *MPMC[T]) BatchPop() *Node[T] {
	sw := spin.Wait{}
	for {
		lo, hi := s.head.LoadAcquire()
		if s.head.CompareAndSwapAcqRel(lo, hi, 0, hi+1) {
			return nodePtr[T](uintptr(lo))
		}
		sw.Once()
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stack implements the Treiber stack family: a lock-free LIFO
// built directly on a CAS'd head pointer, in two flavors.
//
//   - [UPMC]: unique-producer multi-consumer (or, symmetrically, any
//     single-writer-at-a-time discipline). Reclaiming a popped entry
//     requires the caller to run safe memory reclamation (pair with
//     [code.hybscloud.com/conc/hazard]) since a single-width CAS on the
//     head pointer alone cannot detect the ABA problem.
//   - [MPMC]: multi-producer multi-consumer, using a double-width CAS
//     over the head pointer and a monotonic generation counter to defeat
//     ABA without SMR.
//
// An entry must appear in at most one stack at a time; pushing an entry
// already resident in a stack (this one or another) is a caller contract
// violation and is not checked.
package stack

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
	"code.hybscloud.com/spin"
)

// Node is a stack entry: a next link and a caller-assigned value.
// The zero value is a usable, unlinked node.
type Node[T any] struct {
	next  *Node[T]
	Value T
}

// UPMC is a lock-free LIFO stack for the unique-producer multi-consumer
// discipline (any discipline where pushes are serialized by the caller,
// e.g. a single owning goroutine, is equally valid — "unique producer"
// names the access pattern the CAS retry loop assumes, not a hard
// single-producer requirement enforced at runtime).
//
// The zero value is an empty stack.
type UPMC[T any] struct {
	head atomix.Uintptr
}

func nodePtr[T any](addr uintptr) *Node[T] {
	return (*Node[T])(unsafe.Pointer(addr))
}

func ptrOf[T any](n *Node[T]) uintptr {
	return uintptr(unsafe.Pointer(n))
}

// Push adds entry to the top of the stack, retrying its CAS until it
// succeeds.
func (s *UPMC[T]) Push(entry *Node[T]) {
	sw := spin.Wait{}
	for {
		head := s.head.LoadAcquire()
		entry.next = nodePtr[T](head)
		fence.FenceStore()
		if s.head.CompareAndSwapAcqRel(head, ptrOf(entry)) {
			return
		}
		sw.Once()
	}
}

// TryPush attempts a single CAS to push entry, returning false on
// contention without retrying.
func (s *UPMC[T]) TryPush(entry *Node[T]) bool {
	head := s.head.LoadAcquire()
	entry.next = nodePtr[T](head)
	fence.FenceStore()
	return s.head.CompareAndSwapAcqRel(head, ptrOf(entry))
}

// Pop removes and returns the top entry, or (nil, false) if the stack is
// empty. The caller must run SMR (e.g. [code.hybscloud.com/conc/hazard])
// before reusing or freeing the returned entry if other threads may still
// be dereferencing it.
func (s *UPMC[T]) Pop() (*Node[T], bool) {
	sw := spin.Wait{}
	for {
		head := s.head.LoadAcquire()
		if head == 0 {
			return nil, false
		}
		fence.FenceLoad()
		node := nodePtr[T](head)
		next := node.next
		if s.head.CompareAndSwapAcqRel(head, ptrOf(next)) {
			return node, true
		}
		sw.Once()
	}
}

// TryPop attempts a single CAS to pop, returning (nil, false) both when
// the stack is empty and when the CAS lost a race.
func (s *UPMC[T]) TryPop() (*Node[T], bool) {
	head := s.head.LoadAcquire()
	if head == 0 {
		return nil, false
	}
	fence.FenceLoad()
	node := nodePtr[T](head)
	next := node.next
	if s.head.CompareAndSwapAcqRel(head, ptrOf(next)) {
		return node, true
	}
	return nil, false
}

// BatchPop atomically detaches the entire chain via a single
// fetch-and-store of head to nil, returning its former top (or nil if
// the stack was empty). Walk Node.Next to traverse the detached chain.
func (s *UPMC[T]) BatchPop() *Node[T] {
	sw := spin.Wait{}
	for {
		head := s.head.LoadAcquire()
		if s.head.CompareAndSwapAcqRel(head, 0) {
			return nodePtr[T](head)
		}
		sw.Once()
	}
}

// Next returns the link a detached [Node] (e.g. from [UPMC.BatchPop])
// points to.
func (n *Node[T]) Next() *Node[T] { return n.next }

// PushRelaxed pushes entry with no atomicity beyond the pointer writes
// themselves. Valid only in a window where no concurrent Pop/PushRelaxed
// races this call — the single-producer-no-consumer (SPNC) discipline
// named in the stack family's relaxed variants.
func (s *UPMC[T]) PushRelaxed(entry *Node[T]) {
	head := s.head.LoadRelaxed()
	entry.next = nodePtr[T](head)
	s.head.StoreRelaxed(ptrOf(entry))
}

// PopRelaxed pops with no atomicity beyond the pointer writes themselves.
// Valid only in a window where no concurrent Push/PopRelaxed races this
// call — the no-producer-single-consumer (NPSC) discipline.
func (s *UPMC[T]) PopRelaxed() (*Node[T], bool) {
	head := s.head.LoadRelaxed()
	if head == 0 {
		return nil, false
	}
	node := nodePtr[T](head)
	s.head.StoreRelaxed(ptrOf(node.next))
	return node, true
}

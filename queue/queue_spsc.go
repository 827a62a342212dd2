// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package queue

import (
	"unsafe"

	"code.hybscloud.com/atomix"
)

type spscNode[T any] struct {
	next  atomix.Uintptr
	value T
}

// SPSC is an unbounded wait-free FIFO for exactly one enqueuing and one
// dequeuing goroutine. A node-recycling free list ([SPSC.Recycle]) lets
// the consumer hand retired nodes back to the producer, avoiding an
// allocation on every Enqueue once the pool has warmed up.
//
// The zero value is not usable; construct with [NewSPSC].
type SPSC[T any] struct {
	head     atomix.Uintptr // consumer-owned
	tail     atomix.Uintptr // producer-owned
	freeHead atomix.Uintptr // producer pops, consumer pushes via Recycle
	draining atomix.Bool    // shutdown hint: no more enqueues expected
}

// NewSPSC returns an empty queue, seeded with a permanent stub node.
func NewSPSC[T any]() *SPSC[T] {
	stub := &spscNode[T]{}
	p := uintptr(unsafe.Pointer(stub))
	q := &SPSC[T]{}
	q.head.StoreRelaxed(p)
	q.tail.StoreRelaxed(p)
	return q
}

// Drain flags the queue as shutting down: the producer calls this once
// it has issued its last Enqueue, and the consumer can poll [SPSC.Draining]
// to tell "temporarily empty" from "empty and no more values are coming"
// without an out-of-band signal.
func (q *SPSC[T]) Drain() {
	q.draining.StoreRelease(true)
}

// Draining reports whether Drain has been called.
func (q *SPSC[T]) Draining() bool {
	return q.draining.LoadAcquire()
}

func spscPtr[T any](p uintptr) *spscNode[T] {
	return (*spscNode[T])(unsafe.Pointer(p))
}

// allocNode takes a node from the free list if one is available,
// otherwise allocates a fresh one. Only the producer calls this.
func (q *SPSC[T]) allocNode(value T) *spscNode[T] {
	head := q.freeHead.LoadAcquire()
	if head != 0 {
		n := spscPtr[T](head)
		nextFree := n.next.LoadAcquire()
		if q.freeHead.CompareAndSwapAcqRel(head, nextFree) {
			n.value = value
			n.next.StoreRelaxed(0)
			return n
		}
	}
	return &spscNode[T]{value: value}
}

// Enqueue appends value to the tail of the queue. Always succeeds — the
// queue is unbounded. Must only be called by the single producer
// goroutine.
func (q *SPSC[T]) Enqueue(value T) {
	node := q.allocNode(value)
	tail := spscPtr[T](q.tail.LoadRelaxed())
	tail.next.StoreRelease(uintptr(unsafe.Pointer(node)))
	q.tail.StoreRelease(uintptr(unsafe.Pointer(node)))
}

// Dequeue removes and returns the element at the head of the queue. ok
// is false if the queue was observed empty. garbage is the retired stub
// node, ready to be handed to [SPSC.Recycle]. Must only be called by the
// single consumer goroutine.
func (q *SPSC[T]) Dequeue() (value T, garbage unsafe.Pointer, ok bool) {
	headPtr := q.head.LoadRelaxed()
	head := spscPtr[T](headPtr)
	nextPtr := head.next.LoadAcquire()
	if nextPtr == 0 {
		var zero T
		return zero, nil, false
	}
	next := spscPtr[T](nextPtr)
	value = next.value
	q.head.StoreRelease(nextPtr)
	return value, unsafe.Pointer(head), true
}

// Recycle returns a node retired by [SPSC.Dequeue] to the free list, so
// a later Enqueue can reuse it instead of allocating. Must only be
// called by the single consumer goroutine (the same one that obtained
// node from Dequeue).
func (q *SPSC[T]) Recycle(node unsafe.Pointer) {
	n := (*spscNode[T])(node)
	var zero T
	n.value = zero
	for {
		head := q.freeHead.LoadAcquire()
		n.next.StoreRelaxed(head)
		if q.freeHead.CompareAndSwapAcqRel(head, uintptr(node)) {
			return
		}
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rwlock

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
	"code.hybscloud.com/spin"
)

// swWriterBit marks a writer as holding or waiting for the lock.
const swWriterBit = 1 << 31

// swLatchBit is a hard barrier: once set, no reader may increment the
// reader count, even one that is mid-spin in RLock.
const swLatchBit = 1 << 30

// swReaderMask is the low 30 bits, the live reader count.
const swReaderMask = swLatchBit - 1

// Packed is a reader-writer lock packed into a single 32-bit word:
// WriterBit | LatchBit | reader-count. It is the smallest-footprint of
// the three disciplines here, at the cost of no explicit fairness
// ordering among writers.
//
// Packed additionally supports Latch/Unlatch: a hard barrier that,
// unlike Lock/Unlock, guarantees no reader holds the lock for the
// duration (Lock alone still permits readers to arrive and depart while
// a writer spins for the reader count to reach zero).
//
// The zero value is an unlocked Packed lock.
type Packed struct {
	word atomix.Uint32
}

// Lock acquires the lock for writing, permitting reader arrivals to
// continue racing in (and failing, per RLock's writer-bit check) while
// this writer spins for the currently-live reader count to drain.
func (l *Packed) Lock() {
	fence.Or32(&l.word, swWriterBit)
	sw := spin.Wait{}
	for l.word.LoadAcquire()&swReaderMask != 0 {
		sw.Once()
	}
	fence.FenceFull()
}

// TryLock attempts to acquire the write lock without spinning.
func (l *Packed) TryLock() bool {
	prev := fence.Or32(&l.word, swWriterBit)
	if prev&swWriterBit != 0 {
		return false
	}
	if prev&swReaderMask != 0 {
		fence.And32(&l.word, ^uint32(swWriterBit))
		return false
	}
	fence.FenceFull()
	return true
}

// Unlock releases a write lock acquired with Lock or TryLock.
func (l *Packed) Unlock() {
	fence.FenceFull()
	fence.And32(&l.word, swReaderMask)
}

// Latch acquires a hard write barrier: it waits until the word reads
// exactly WriterBit with zero readers, then atomically also sets
// LatchBit, guaranteeing no reader is concurrently active for the
// duration of the latch.
func (l *Packed) Latch() {
	fence.Or32(&l.word, swWriterBit)
	sw := spin.Wait{}
	for {
		cur := l.word.LoadAcquire()
		if cur&swReaderMask != 0 {
			sw.Once()
			continue
		}
		if l.word.CompareAndSwapAcqRel(swWriterBit, swWriterBit|swLatchBit) {
			break
		}
		sw.Once()
	}
	fence.FenceFull()
}

// Unlatch releases a latch acquired with Latch. Precondition: no readers
// are held (Latch's own invariant guarantees this as long as no caller
// bypassed Latch's protocol).
func (l *Packed) Unlatch() {
	fence.FenceFull()
	l.word.StoreRelease(0)
}

// RLock acquires a read lock. Spins while a writer holds or is waiting
// for the write lock; retries if a writer's bit becomes visible between
// this reader's increment and its re-check.
func (l *Packed) RLock() {
	sw := spin.Wait{}
	for {
		for l.word.LoadAcquire()&swWriterBit != 0 {
			sw.Once()
		}
		fence.Faa32(&l.word, 1)
		if l.word.LoadAcquire()&swWriterBit == 0 {
			return
		}
		fence.Faa32(&l.word, -1)
	}
}

// TryRLock attempts to acquire a read lock without spinning.
func (l *Packed) TryRLock() bool {
	if l.word.LoadAcquire()&swWriterBit != 0 {
		return false
	}
	fence.Faa32(&l.word, 1)
	if l.word.LoadAcquire()&swWriterBit == 0 {
		return true
	}
	fence.Faa32(&l.word, -1)
	return false
}

// RUnlock releases a read lock acquired with RLock or TryRLock.
func (l *Packed) RUnlock() {
	fence.Faa32(&l.word, -1)
}

// Downgrade converts a held write lock into a read lock.
func (l *Packed) Downgrade() {
	fence.Faa32(&l.word, 1)
	l.Unlock()
}

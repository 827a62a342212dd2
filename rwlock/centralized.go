// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rwlock provides three reader-writer lock disciplines, each
// trading fairness for implementation simplicity differently:
//
//   - [Centralized]: separate writer and reader-count fields, no fairness
//     guarantee between roles.
//   - [PhaseFair]: the Brandenburg–Anderson (2010) algorithm, bounding
//     overtaking for both readers and writers.
//   - [Packed]: a single 32-bit word, for the smallest possible footprint
//     when a latch (hard barrier) semantics is also needed.
//
// All three spin rather than block: there is no kernel-level parking
// here, matching spec.md's "spinlocks and blocking rwlocks are
// busy-waiting and never suspend" scheduling model. For a lock that parks
// a thread in the kernel when contended, compose one of these with
// [code.hybscloud.com/conc/eventcount].
package rwlock

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
	"code.hybscloud.com/spin"
)

// Centralized is a reader-writer lock with separate writer and
// reader-count fields. It provides no fairness guarantee between reader
// and writer roles — under sustained reader load a writer may starve.
//
// The zero value is an unlocked Centralized lock.
type Centralized struct {
	writer   atomix.Uint64 // 0 = unlocked, else holder id (recursive) or 1
	wc       atomix.Uint64 // recursion depth, valid while writer != 0
	nReaders atomix.Int64
}

// Lock acquires the lock for writing. Spins until no writer holds it,
// then until all readers have drained.
func (l *Centralized) Lock() {
	sw := spin.Wait{}
	for l.writer.CompareAndSwapAcqRel(0, 1) == false {
		sw.Once()
	}
	fence.FenceLoad()
	sw = spin.Wait{}
	for l.nReaders.LoadAcquire() != 0 {
		sw.Once()
	}
	fence.FenceFull()
}

// TryLock attempts to acquire the write lock without spinning. Returns
// false immediately on contention.
func (l *Centralized) TryLock() bool {
	if !l.writer.CompareAndSwapAcqRel(0, 1) {
		return false
	}
	if l.nReaders.LoadAcquire() != 0 {
		l.writer.StoreRelease(0)
		return false
	}
	fence.FenceFull()
	return true
}

// Unlock releases the write lock.
func (l *Centralized) Unlock() {
	fence.FenceFull()
	l.writer.StoreRelease(0)
}

// Downgrade converts a held write lock directly into a read lock without
// an intervening window where the lock is fully unlocked to other
// writers (though other writers may still race in between the two
// stores, per the centralized discipline's lack of fairness).
func (l *Centralized) Downgrade() {
	l.nReaders.AddAcqRel(1)
	l.Unlock()
}

// RLock acquires the lock for reading. Multiple readers may hold the lock
// concurrently; a pending or active writer excludes all readers.
func (l *Centralized) RLock() {
	sw := spin.Wait{}
	for {
		for l.writer.LoadAcquire() != 0 {
			sw.Once()
		}
		l.nReaders.AddAcqRel(1)
		fence.FenceLoad()
		if l.writer.LoadAcquire() == 0 {
			return
		}
		l.nReaders.AddAcqRel(-1)
	}
}

// TryRLock attempts to acquire a read lock without spinning.
func (l *Centralized) TryRLock() bool {
	if l.writer.LoadAcquire() != 0 {
		return false
	}
	l.nReaders.AddAcqRel(1)
	fence.FenceLoad()
	if l.writer.LoadAcquire() == 0 {
		return true
	}
	l.nReaders.AddAcqRel(-1)
	return false
}

// RUnlock releases a read lock previously acquired with RLock or
// TryRLock.
func (l *Centralized) RUnlock() {
	l.nReaders.AddAcqRel(-1)
}

// LockRecursive acquires the write lock, or increments the recursion
// depth if the calling thread (identified by the caller-supplied id,
// since Go exposes no public goroutine id) already holds it.
//
// id must be non-zero; zero is reserved to mean "unlocked".
func (l *Centralized) LockRecursive(id uint64) {
	if id == 0 {
		panic("rwlock: recursive lock id must be non-zero")
	}
	if l.writer.LoadAcquire() == id {
		l.wc.AddAcqRel(1)
		return
	}
	sw := spin.Wait{}
	for !l.writer.CompareAndSwapAcqRel(0, id) {
		sw.Once()
	}
	fence.FenceLoad()
	sw = spin.Wait{}
	for l.nReaders.LoadAcquire() != 0 {
		sw.Once()
	}
	fence.FenceFull()
	l.wc.StoreRelaxed(1)
}

// UnlockRecursive releases one level of write-lock recursion acquired by
// id via LockRecursive, fully unlocking once the depth reaches zero.
func (l *Centralized) UnlockRecursive(id uint64) {
	if l.writer.LoadAcquire() != id {
		panic("rwlock: UnlockRecursive called by non-owner")
	}
	if l.wc.AddAcqRel(-1) == 0 {
		fence.FenceFull()
		l.writer.StoreRelease(0)
	}
}

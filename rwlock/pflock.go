// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rwlock

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
	"code.hybscloud.com/spin"
)

// pfRinc is the increment reader arrivals apply to rin. The low bits of
// rin are reserved for the writer-present/phase indicator; RINC = 0x100
// keeps the reader count from colliding with them.
const pfRinc = 0x100

// pfWbitsMask isolates the writer-present/phase bits packed into the low
// byte of rin.
const pfWbitsMask = 0xff

// PhaseFair is the Brandenburg–Anderson (2010) phase-fair reader-writer
// lock: readers and writers alternate in strict phases, bounding
// overtaking for both roles so neither can starve the other.
//
// The zero value is an unlocked PhaseFair lock.
type PhaseFair struct {
	rin  atomix.Uint32
	rout atomix.Uint32
	win  atomix.Uint32
	wout atomix.Uint32
}

// RLock acquires the lock for reading. A reader that arrives during a
// writer's request phase waits for that phase to end before proceeding;
// readers that arrive otherwise proceed immediately and concurrently with
// each other.
func (l *PhaseFair) RLock() {
	w := fence.Faa32(&l.rin, pfRinc) & pfWbitsMask
	if w != 0 {
		sw := spin.Wait{}
		for l.rin.LoadAcquire()&pfWbitsMask == w {
			sw.Once()
		}
	}
}

// RUnlock releases a read lock acquired with RLock.
func (l *PhaseFair) RUnlock() {
	fence.Faa32(&l.rout, pfRinc)
}

// Lock acquires the lock for writing. Writers are strictly ticketed
// (FIFO among writers); once it is this writer's turn, it marks reader
// arrivals for the next phase as blocked and waits for readers already
// present to drain.
func (l *PhaseFair) Lock() {
	ticket := fence.Faa32(&l.win, 1)
	sw := spin.Wait{}
	for l.wout.LoadAcquire() != ticket {
		sw.Once()
	}

	w := ticket&1 + 1 // alternate writer-phase bit {1,2} so consecutive writers differ
	rinVal := fence.Or32(&l.rin, w)
	readersPresent := rinVal &^ pfWbitsMask

	sw = spin.Wait{}
	for l.rout.LoadAcquire()&^pfWbitsMask != readersPresent {
		sw.Once()
	}
	fence.FenceFull()
}

// Unlock releases the write lock, migrating the lock back to a read
// phase and advancing the writer ticket so the next queued writer (if
// any) may proceed.
func (l *PhaseFair) Unlock() {
	fence.FenceFull()
	fence.And32(&l.rin, ^uint32(pfWbitsMask))
	fence.Faa32(&l.wout, 1)
}

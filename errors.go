// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package conc provides lock-free, wait-free, and fine-grained blocking
// synchronization primitives: hazard-pointer safe memory reclamation
// ([code.hybscloud.com/conc/hazard]), Treiber stacks
// ([code.hybscloud.com/conc/stack]), Michael–Scott FIFOs
// ([code.hybscloud.com/conc/queue]), a copy-on-write publication array
// ([code.hybscloud.com/conc/cow]), a concurrent bitmap
// ([code.hybscloud.com/conc/bitmap]), reader-writer locks
// ([code.hybscloud.com/conc/rwlock]), and futex-backed event counts
// ([code.hybscloud.com/conc/eventcount]), all built on the atomic and
// fence substrate in [code.hybscloud.com/conc/fence].
//
// The root package itself holds only what every component shares: the
// exponential [Backoff] counter and the ecosystem-standard error
// sentinels re-exported from [code.hybscloud.com/iox].
package conc

import "code.hybscloud.com/iox"

// ErrWouldBlock indicates an operation cannot proceed immediately. No
// operation in this module returns it: an empty stack or queue, or a
// try-lock or try-push that did not succeed, is reported through a false
// bool result, which a caller may translate into ErrWouldBlock.
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry with a [Backoff] rather than propagating the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

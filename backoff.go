// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conc

import "code.hybscloud.com/conc/fence"

// BackoffInitializer is the state a zero-value [Backoff] should be reset
// to before first use.
const BackoffInitializer = 512

// BackoffCeiling bounds the number of spin iterations a [Backoff] will
// escalate to. Once reached, further [Backoff.Wait] calls spin exactly
// this many iterations without growing further.
const BackoffCeiling = 1<<20 - 1

// Backoff is a per-thread exponential backoff counter, matching
// [code.hybscloud.com/spin.Wait]'s contract but exposing the exact
// doubling/ceiling state spec'd for composing with hazard-record scan
// retries and event-count busy loops.
//
// A Backoff is not safe for concurrent use: each goroutine must own its
// own value, exactly as every lfq hot path constructs a local
// spin.Wait{} rather than sharing one. The zero value is degenerate (see
// [Backoff.Wait]); call [NewBackoff] or [Backoff.Reset] before first use.
type Backoff struct {
	state uint32
}

// NewBackoff returns a Backoff initialized to [BackoffInitializer].
func NewBackoff() Backoff {
	return Backoff{state: BackoffInitializer}
}

// Wait spins the current iteration count, then doubles it, saturating at
// [BackoffCeiling]. A zero state is a documented caller error, not a
// checked precondition: it spins zero iterations and then stores
// min(0*2, CEILING) = 0 back, so it stays stuck at zero forever.
func (b *Backoff) Wait() {
	for i := uint32(0); i < b.state; i++ {
		fence.CompilerBarrier()
	}
	next := uint64(b.state) * 2
	if next > BackoffCeiling {
		next = BackoffCeiling
	}
	b.state = uint32(next)
}

// Reset restores the backoff to [BackoffInitializer], to be called once a
// contended operation succeeds.
func (b *Backoff) Reset() {
	b.state = BackoffInitializer
}

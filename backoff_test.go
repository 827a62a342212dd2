// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conc

import "testing"

func TestBackoffSequence(t *testing.T) {
	b := NewBackoff()
	want := []uint32{1024, 2048, 4096, 8192, 16384}
	for i, w := range want {
		b.Wait()
		if b.state != w {
			t.Fatalf("call %d: state = %d, want %d", i+1, b.state, w)
		}
	}
}

func TestBackoffCeiling(t *testing.T) {
	b := Backoff{state: BackoffCeiling}
	b.Wait()
	if b.state != BackoffCeiling {
		t.Fatalf("state = %d, want ceiling %d", b.state, BackoffCeiling)
	}
}

func TestBackoffDegenerateZero(t *testing.T) {
	var b Backoff
	b.Wait()
	if b.state != 0 {
		t.Fatalf("state = %d, want 0 (documented degenerate case)", b.state)
	}
}

func TestBackoffReset(t *testing.T) {
	b := Backoff{state: BackoffCeiling}
	b.Reset()
	if b.state != BackoffInitializer {
		t.Fatalf("state = %d, want %d", b.state, BackoffInitializer)
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bitmap implements a concurrent bitmap: a fixed bit count
// backed by an array of atomically-addressed 64-bit words. Per-bit
// operations ([Bitmap.Set], [Bitmap.Reset], [Bitmap.Test], [Bitmap.Bts])
// are individually atomic. The bulk operations ([Bitmap.Union],
// [Bitmap.Intersection], [Bitmap.IntersectionNegate], [Bitmap.Clear])
// apply atomic per-word RMWs but are not linearizable across the whole
// bitmap — a concurrent reader can observe a mix of pre- and
// post-operation words mid-call.
package bitmap

import (
	"math/bits"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/conc/fence"
)

// wordBits is W, the bit width of one backing word.
const wordBits = 64

// Bitmap is a fixed-size concurrent bit set.
//
// The zero value is not usable; construct with [New].
type Bitmap struct {
	nBits int
	words []atomix.Uint64
}

// New returns a Bitmap with nBits bits, all initially clear.
func New(nBits int) *Bitmap {
	if nBits < 0 {
		panic("bitmap: nBits must be >= 0")
	}
	n := (nBits + wordBits - 1) / wordBits
	return &Bitmap{nBits: nBits, words: make([]atomix.Uint64, n)}
}

// Len returns the declared bit count.
func (b *Bitmap) Len() int { return b.nBits }

func (b *Bitmap) checkIndex(n int) {
	if n < 0 || n >= b.nBits {
		panic("bitmap: bit index out of range")
	}
}

// Set atomically sets bit n.
func (b *Bitmap) Set(n int) {
	b.checkIndex(n)
	fence.Or64(&b.words[n/wordBits], uint64(1)<<(uint(n)%wordBits))
}

// Reset atomically clears bit n.
func (b *Bitmap) Reset(n int) {
	b.checkIndex(n)
	fence.And64(&b.words[n/wordBits], ^(uint64(1) << (uint(n) % wordBits)))
}

// Test atomically loads bit n's word and checks the bit.
func (b *Bitmap) Test(n int) bool {
	b.checkIndex(n)
	word := b.words[n/wordBits].LoadAcquire()
	return word&(uint64(1)<<(uint(n)%wordBits)) != 0
}

// Bts atomically tests and sets bit n, returning the bit's prior value.
func (b *Bitmap) Bts(n int) bool {
	b.checkIndex(n)
	return fence.Bts64(&b.words[n/wordBits], uint(n)%wordBits)
}

// Count sums the population count of every bit up to limit (exclusive),
// masking the partial final word so bits beyond limit never contribute.
func (b *Bitmap) Count(limit int) int {
	if limit > b.nBits {
		limit = b.nBits
	}
	if limit <= 0 {
		return 0
	}
	fullWords := limit / wordBits
	remBits := limit % wordBits

	count := 0
	for i := 0; i < fullWords; i++ {
		count += bits.OnesCount64(b.words[i].LoadAcquire())
	}
	if remBits > 0 {
		mask := uint64(1)<<uint(remBits) - 1
		count += bits.OnesCount64(b.words[fullWords].LoadAcquire() & mask)
	}
	return count
}

// sameShape panics if dst and src do not have an identical word layout,
// a caller-contract precondition for every bulk operation below.
func sameShape(dst, src *Bitmap) {
	if dst.nBits != src.nBits {
		panic("bitmap: bulk operation requires equal-sized bitmaps")
	}
}

// Union ORs every word of src into dst. Not linearizable across the
// whole bitmap: a concurrent reader of dst may observe some words
// updated and others not yet.
func (dst *Bitmap) Union(src *Bitmap) {
	sameShape(dst, src)
	for i := range dst.words {
		fence.Or64(&dst.words[i], src.words[i].LoadAcquire())
	}
}

// Intersection ANDs every word of src into dst. Not linearizable across
// the whole bitmap.
func (dst *Bitmap) Intersection(src *Bitmap) {
	sameShape(dst, src)
	for i := range dst.words {
		fence.And64(&dst.words[i], src.words[i].LoadAcquire())
	}
}

// IntersectionNegate ANDs the bitwise complement of every word of src
// into dst (dst &^= src, word by word). Not linearizable across the
// whole bitmap.
func (dst *Bitmap) IntersectionNegate(src *Bitmap) {
	sameShape(dst, src)
	for i := range dst.words {
		fence.And64(&dst.words[i], ^src.words[i].LoadAcquire())
	}
}

// Clear stores zero into every word. Not linearizable across the whole
// bitmap.
func (b *Bitmap) Clear() {
	for i := range b.words {
		b.words[i].StoreRelease(0)
	}
}

// Iterator returns a function that, on each call, returns the index of
// the next set bit after the previous one returned (scanning from
// the start on the first call), and true — or (0, false) once no more
// set bits remain. It caches one word at a time, so concurrent writers
// may cause a bit to be skipped or observed twice across the scan; it is
// not a linearizable snapshot.
func (b *Bitmap) Iterator() func() (int, bool) {
	wordIdx := 0
	var cache uint64
	loaded := false
	return func() (int, bool) {
		for {
			if !loaded {
				if wordIdx >= len(b.words) {
					return 0, false
				}
				cache = b.words[wordIdx].LoadAcquire()
				if wordIdx == len(b.words)-1 {
					rem := b.nBits % wordBits
					if rem != 0 {
						cache &= uint64(1)<<uint(rem) - 1
					}
				}
				loaded = true
			}
			if cache == 0 {
				wordIdx++
				loaded = false
				continue
			}
			bitIdx := bits.TrailingZeros64(cache)
			cache &= cache - 1 // clear the lowest set bit
			return wordIdx*wordBits + bitIdx, true
		}
	}
}

// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package allocator abstracts the three operations a container needs
// from a memory provider — alloc, realloc, free — behind a function
// vector, so [code.hybscloud.com/conc/cow] and friends can be built
// against a pluggable backing store instead of Go's garbage collector
// directly. The default [Default] vector is a thin GC-backed shim;
// production callers with a pooled or arena allocator substitute their
// own [Vector].
package allocator

// Vector is a function vector of allocator primitives. A nil field is a
// caller error — every component that accepts a Vector requires all
// three to be populated.
type Vector struct {
	// Alloc returns a slice of the requested length, or nil on failure.
	Alloc func(size int) []byte

	// Realloc resizes ptr from oldSize to newSize. When mayMove is
	// false, the allocator must resize in place or return nil — the
	// original block remains valid in that case — because the caller
	// may have already published an interior pointer into it. When
	// mayMove is true the allocator may return a different backing
	// array; its first oldSize bytes carry ptr's former contents.
	Realloc func(ptr []byte, oldSize, newSize int, mayMove bool) []byte

	// Free releases ptr. size enables sized-delete optimizations and
	// may be ignored. defer_ permits the allocator to enqueue the
	// release into a later batch (e.g. behind SMR); false requires the
	// allocator to release immediately. Named defer_ since defer is a
	// keyword.
	Free func(ptr []byte, size int, defer_ bool)
}

// Default returns a Vector backed directly by the Go runtime: Alloc and
// Realloc allocate ordinary slices, and Free is a no-op (the garbage
// collector reclaims unreferenced slices on its own schedule regardless
// of the defer_ flag).
func Default() Vector {
	return Vector{
		Alloc: func(size int) []byte {
			if size < 0 {
				return nil
			}
			return make([]byte, size)
		},
		Realloc: func(ptr []byte, oldSize, newSize int, mayMove bool) []byte {
			if newSize <= cap(ptr) {
				out := ptr[:newSize]
				return out
			}
			if !mayMove {
				return nil
			}
			out := make([]byte, newSize)
			copy(out, ptr)
			return out
		},
		Free: func([]byte, int, bool) {},
	}
}

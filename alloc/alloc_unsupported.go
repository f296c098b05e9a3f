// Fallback for hosts with no native aligned allocator in this build.
// Verification-only binaries still compile and link here.

//go:build !unix && !windows

package alloc

import "unsafe"

// Variant names the host primitive behind AllocAligned.
const Variant = "unsupported"

// Available reports whether this build can satisfy allocation requests.
const Available = false

// AllocAligned always returns nil.
func AllocAligned(size, alignment uintptr) unsafe.Pointer {
	return nil
}

// FreeAligned is a no-op.
func FreeAligned(p unsafe.Pointer, size uintptr) {}

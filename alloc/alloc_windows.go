//go:build cgo && windows

package alloc

/*
#include <malloc.h>

static void *host_alloc_aligned(size_t size, size_t align) {
	return _aligned_malloc(size, align);
}

static void host_free_aligned(void *p) {
	_aligned_free(p);
}
*/
import "C"

import "unsafe"

// Variant names the host primitive behind AllocAligned.
const Variant = "_aligned_malloc"

// Available reports whether this build can satisfy allocation requests.
const Available = true

// AllocAligned returns size bytes aligned to alignment from _aligned_malloc.
func AllocAligned(size, alignment uintptr) unsafe.Pointer {
	return C.host_alloc_aligned(C.size_t(size), C.size_t(alignment))
}

// FreeAligned releases a block returned by AllocAligned. size is unused.
func FreeAligned(p unsafe.Pointer, size uintptr) {
	if p == nil {
		return
	}
	C.host_free_aligned(p)
}

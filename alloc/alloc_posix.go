//go:build cgo && unix

package alloc

/*
#include <stdlib.h>

static void *host_alloc_aligned(size_t size, size_t align) {
	void *p = NULL;
	if (posix_memalign(&p, align, size) != 0) {
		return NULL;
	}
	return p;
}
*/
import "C"

import "unsafe"

// Variant names the host primitive behind AllocAligned.
const Variant = "posix_memalign"

// Available reports whether this build can satisfy allocation requests.
const Available = true

// AllocAligned returns size bytes aligned to alignment from posix_memalign,
// or nil if posix_memalign reports any error.
func AllocAligned(size, alignment uintptr) unsafe.Pointer {
	return C.host_alloc_aligned(C.size_t(size), C.size_t(alignment))
}

// FreeAligned releases a block returned by AllocAligned. size is unused.
func FreeAligned(p unsafe.Pointer, size uintptr) {
	if p == nil {
		return
	}
	C.free(p)
}

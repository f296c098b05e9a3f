//go:build cgo && (unix || windows)

package alloc

/*
#cgo CFLAGS: -I${SRCDIR}/../include
#include "sysalloc.h"
*/
import "C"

import "unsafe"

// sys_alloc_aligned is the C ABI entry point the guest runtime links
// against. include/sysalloc.h declares it; the generated export must agree
// with that declaration or this package fails to compile.
//
//export sys_alloc_aligned
func sys_alloc_aligned(size, align C.size_t) unsafe.Pointer {
	return AllocAligned(uintptr(size), uintptr(align))
}

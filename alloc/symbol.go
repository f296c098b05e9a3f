//go:build cgo && (unix || windows)

package alloc

/*
#include "sysalloc.h"
*/
import "C"

import "unsafe"

// HasSymbol reports whether this build exports sys_alloc_aligned.
const HasSymbol = true

// Symbol calls the exported sys_alloc_aligned through the C ABI.
func Symbol(size, alignment uintptr) unsafe.Pointer {
	return C.sys_alloc_aligned(C.size_t(size), C.size_t(alignment))
}

//go:build !cgo || (!unix && !windows)

package alloc

import "unsafe"

// HasSymbol reports whether this build exports sys_alloc_aligned.
const HasSymbol = false

// Symbol returns nil: no C symbol is emitted without cgo or on hosts with
// no native aligned allocator.
func Symbol(size, alignment uintptr) unsafe.Pointer {
	return nil
}

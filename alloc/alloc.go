// Package alloc provides sys_alloc_aligned, the aligned heap allocation
// call a zkVM guest runtime links against during proof generation, backed
// by the host's native aligned allocator.
//
// Exactly one host variant is compiled into a build:
//
//	cgo && unix      posix_memalign
//	cgo && windows   _aligned_malloc
//	!cgo && unix     anonymous mmap
//	anything else    unavailable, every request returns nil
//
// AllocAligned forwards (size, alignment) untouched and returns whatever the
// host primitive returns. A nil result is the only failure signal.
package alloc

import "unsafe"

var ptrSize = unsafe.Sizeof(uintptr(0))

// Request is a single (size, alignment) allocation request.
type Request struct {
	Size      uintptr `json:"size"`
	Alignment uintptr `json:"alignment"`
}

// Do issues r through AllocAligned.
func (r Request) Do() unsafe.Pointer {
	return AllocAligned(r.Size, r.Alignment)
}

// IsAligned reports whether p is a multiple of alignment.
// A zero alignment is never satisfied.
func IsAligned(p unsafe.Pointer, alignment uintptr) bool {
	if alignment == 0 {
		return false
	}
	return uintptr(p)%alignment == 0
}

// Bytes views n bytes at p. It returns nil for a nil p.
func Bytes(p unsafe.Pointer, n uintptr) []byte {
	if p == nil {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

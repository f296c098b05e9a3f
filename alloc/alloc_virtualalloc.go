//go:build !cgo && windows

package alloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Variant names the host primitive behind AllocAligned.
const Variant = "VirtualAlloc"

// Available reports whether this build can satisfy allocation requests.
const Available = true

const (
	// every VirtualAlloc reservation starts on this boundary
	allocGranularity = 64 << 10

	// another thread can take the aligned address between releasing the
	// oversized reservation and committing at it
	placeAttempts = 8
)

var (
	virtualAlloc = windows.VirtualAlloc
	virtualFree  = windows.VirtualFree
)

// AllocAligned commits size bytes of read-write memory aligned to alignment.
//
// VirtualAlloc takes no alignment, so the parameter contract is the same as
// the mmap variant's: alignment must be a power of two and a multiple of the
// pointer size, or the result is nil. Alignments up to the 64 KiB allocation
// granularity come for free. Larger ones reserve size+alignment bytes to find
// an aligned address, release the reservation and commit at that address.
func AllocAligned(size, alignment uintptr) unsafe.Pointer {
	if alignment == 0 || alignment&(alignment-1) != 0 || alignment%ptrSize != 0 {
		return nil
	}
	if alignment <= allocGranularity {
		return commit(0, size)
	}

	span := size + alignment
	if span < size {
		return nil
	}
	for i := 0; i < placeAttempts; i++ {
		base, err := virtualAlloc(0, span, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
		if err != nil {
			return nil
		}
		start := (base + alignment - 1) &^ (alignment - 1)
		if err := virtualFree(base, 0, windows.MEM_RELEASE); err != nil {
			return nil
		}
		if p := commit(start, size); p != nil {
			return p
		}
	}
	return nil
}

// FreeAligned releases a block returned by AllocAligned. size is unused.
func FreeAligned(p unsafe.Pointer, size uintptr) {
	if p == nil {
		return
	}
	if err := virtualFree(uintptr(p), 0, windows.MEM_RELEASE); err != nil {
		panic(fmt.Errorf("VirtualFree %p: %w", p, err))
	}
}

// commit returns nil on any failure, including a zero size.
func commit(addr, size uintptr) unsafe.Pointer {
	p, err := virtualAlloc(addr, size, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(p)
}

//go:build !cgo && unix

package alloc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Variant names the host primitive behind AllocAligned.
const Variant = "mmap"

// Available reports whether this build can satisfy allocation requests.
const Available = true

var (
	pageSize  = uintptr(unix.Getpagesize()) // typically 4096
	munmapPtr = unix.MunmapPtr
)

// AllocAligned maps size bytes of anonymous memory aligned to alignment.
//
// mmap takes no alignment, so the parameter contract is posix_memalign's:
// alignment must be a power of two and a multiple of the pointer size, or
// the result is nil. Blocks are whole pages. Alignments above the page size
// are met by mapping alignment-pageSize extra bytes and unmapping the
// unaligned head and the leftover tail.
func AllocAligned(size, alignment uintptr) unsafe.Pointer {
	if alignment == 0 || alignment&(alignment-1) != 0 || alignment%ptrSize != 0 {
		return nil
	}
	length, ok := pageRound(size)
	if !ok {
		return nil
	}
	if alignment <= pageSize {
		return mmap(length)
	}

	span := length + alignment - pageSize
	if span < length {
		return nil
	}
	base := mmap(span)
	if base == nil {
		return nil
	}

	start := (uintptr(base) + alignment - 1) &^ (alignment - 1)
	head := start - uintptr(base)
	if tail := span - head - length; tail > 0 {
		if err := munmapPtr(unsafe.Add(base, head+length), tail); err != nil {
			release(base, span)
			return nil
		}
	}
	if head > 0 {
		if err := munmapPtr(base, head); err != nil {
			release(base, head+length)
			return nil
		}
	}
	return unsafe.Add(base, head)
}

// release drops a mapping that could not be trimmed. A second failure
// leaves nothing else to try.
func release(p unsafe.Pointer, length uintptr) {
	_ = munmapPtr(p, length)
}

// FreeAligned unmaps a block returned by AllocAligned. size must be the
// size it was requested with.
func FreeAligned(p unsafe.Pointer, size uintptr) {
	if p == nil {
		return
	}
	length, _ := pageRound(size)
	if err := munmapPtr(p, length); err != nil {
		panic(fmt.Errorf("munmap %p (%d bytes): %w", p, length, err))
	}
}

// mmap returns nil on any failure, including a zero length.
func mmap(length uintptr) unsafe.Pointer {
	p, err := unix.MmapPtr(-1, 0, nil, length,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil
	}
	return p
}

func pageRound(size uintptr) (uintptr, bool) {
	if size > ^uintptr(0)-(pageSize-1) {
		return 0, false
	}
	return (size + pageSize - 1) &^ (pageSize - 1), true
}

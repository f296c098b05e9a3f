package probe

import "errors"

var (
	// ErrInvalidConfig indicates a Config that failed validation.
	ErrInvalidConfig = errors.New("probe: invalid config")

	// ErrNoSymbol indicates Via is "symbol" but the build exports no sys_alloc_aligned.
	ErrNoSymbol = errors.New("probe: sys_alloc_aligned is not exported in this build")

	// ErrUnavailable indicates the build has no host aligned allocator.
	ErrUnavailable = errors.New("probe: no aligned allocator in this build")

	// ErrMisaligned indicates a non-nil block whose address is not a multiple of its alignment.
	ErrMisaligned = errors.New("probe: misaligned block")

	// ErrOverlap indicates two live blocks sharing bytes.
	ErrOverlap = errors.New("probe: overlapping blocks")

	// ErrCorrupted indicates a block whose fill pattern did not survive the round.
	ErrCorrupted = errors.New("probe: corrupted block")
)

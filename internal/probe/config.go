package probe

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-playground/validator/v10"
	"github.com/shivam-909/sysalloc/alloc"
)

// Allocation paths a probe can drive.
const (
	ViaGo     = "go"
	ViaSymbol = "symbol"
)

// validate is shared; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(validateRequest, alloc.Request{})
	return v
}

// validateRequest holds alignments to what posix_memalign accepts: a power
// of two that is a multiple of the pointer size.
func validateRequest(sl validator.StructLevel) {
	r := sl.Current().Interface().(alloc.Request)
	a := r.Alignment
	if a == 0 || a&(a-1) != 0 {
		sl.ReportError(a, "Alignment", "Alignment", "pow2", "")
		return
	}
	if a%unsafe.Sizeof(uintptr(0)) != 0 {
		sl.ReportError(a, "Alignment", "Alignment", "ptralign", "")
	}
}

// Config describes one probe run. Every request is issued Workers times per
// round, all concurrently live until the round is checked.
type Config struct {
	Requests []alloc.Request `validate:"required,min=1,dive"`
	Workers  int             `validate:"min=1"`
	Rounds   int             `validate:"min=1"`
	Via      string          `validate:"oneof=go symbol"`
}

// DefaultConfig mixes word, cache line and page alignments.
func DefaultConfig() Config {
	return Config{
		Requests: []alloc.Request{
			{Size: 64, Alignment: 8},
			{Size: 1000, Alignment: 64},
			{Size: 4096, Alignment: 4096},
			{Size: 1 << 20, Alignment: 1 << 16},
		},
		Workers: runtime.GOMAXPROCS(0),
		Rounds:  4,
		Via:     ViaGo,
	}
}

// Validate checks c and that the requested path exists in this build.
// Request alignments must be powers of two and multiples of the pointer
// size; the allocation boundary itself never checks this.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !alloc.Available {
		return fmt.Errorf("%w (%s)", ErrUnavailable, alloc.Variant)
	}
	if c.Via == ViaSymbol && !alloc.HasSymbol {
		return ErrNoSymbol
	}
	return nil
}

// path pairs an allocation entry point with its release.
type path struct {
	alloc func(size, alignment uintptr) unsafe.Pointer
	free  func(p unsafe.Pointer, size uintptr)
}

func pathFor(via string) path {
	if via == ViaSymbol {
		return path{alloc.Symbol, alloc.FreeAligned}
	}
	return path{alloc.AllocAligned, alloc.FreeAligned}
}

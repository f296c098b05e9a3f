package probe

import (
	"fmt"

	"github.com/shivam-909/sysalloc/alloc"
)

// AbsurdSize cannot be satisfied by any host: with alignment overhead it
// exceeds the address space.
const AbsurdSize = ^uintptr(0) - 1<<12

// Scenario is a single end-to-end request with a known expected outcome.
type Scenario struct {
	Name      string        `json:"name"`
	Request   alloc.Request `json:"request"`
	ExpectNil bool          `json:"expect_nil"`
}

// ScenarioResult is the outcome of RunScenario.
type ScenarioResult struct {
	Scenario
	Via    string  `json:"via"`
	Addr   uintptr `json:"addr"`
	Passed bool    `json:"passed"`
	Reason string  `json:"reason,omitempty"`
}

// Scenarios returns the fixed end-to-end checks: a small word-aligned block,
// a page-aligned page, and a request that must fail cleanly.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "small", Request: alloc.Request{Size: 64, Alignment: 8}},
		{Name: "page", Request: alloc.Request{Size: 4096, Alignment: 4096}},
		{Name: "absurd", Request: alloc.Request{Size: AbsurdSize, Alignment: 8}, ExpectNil: true},
	}
}

// RunScenario issues s once through via and releases whatever it got.
func RunScenario(s Scenario, via string) ScenarioResult {
	res := ScenarioResult{Scenario: s, Via: via}
	switch {
	case !alloc.Available:
		res.Reason = ErrUnavailable.Error()
		return res
	case via == ViaSymbol && !alloc.HasSymbol:
		res.Reason = ErrNoSymbol.Error()
		return res
	}

	r := s.Request
	pa := pathFor(via)
	p := pa.alloc(r.Size, r.Alignment)
	res.Addr = uintptr(p)
	if p != nil {
		defer pa.free(p, r.Size)
	}

	switch {
	case s.ExpectNil && p != nil:
		res.Reason = fmt.Sprintf("expected nil, got %#x", res.Addr)
	case s.ExpectNil:
		res.Passed = true
	case p == nil:
		res.Reason = "allocation failed"
	case !alloc.IsAligned(p, r.Alignment):
		res.Reason = fmt.Sprintf("%#x is not aligned to %d", res.Addr, r.Alignment)
	default:
		fill(p, r.Size, 0xa5)
		if !intact(p, r.Size, 0xa5) {
			res.Reason = "block did not hold its contents"
			break
		}
		res.Passed = true
	}
	return res
}

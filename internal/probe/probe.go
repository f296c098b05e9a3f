// Package probe checks an aligned allocation path against the guarantees
// the guest runtime relies on: every non-nil block is aligned, usable for
// its full size and disjoint from every other live block.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
	"unsafe"

	"github.com/shivam-909/sysalloc/alloc"
	"golang.org/x/sync/errgroup"
)

// Report summarises a Run. Failed counts nil results, which are a legal
// answer from the host and not a violation.
type Report struct {
	Variant    string        `json:"variant"`
	Via        string        `json:"via"`
	Rounds     int           `json:"rounds"`
	Requested  int           `json:"requested"`
	Allocated  int           `json:"allocated"`
	Failed     int           `json:"failed"`
	Misaligned int           `json:"misaligned"`
	Overlaps   int           `json:"overlaps"`
	Corrupted  int           `json:"corrupted"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Err returns the invariant violations in r, or nil.
func (r Report) Err() error {
	var errs []error
	if r.Misaligned > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrMisaligned, r.Misaligned))
	}
	if r.Overlaps > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrOverlap, r.Overlaps))
	}
	if r.Corrupted > 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrCorrupted, r.Corrupted))
	}
	return errors.Join(errs...)
}

type liveBlock struct {
	p    unsafe.Pointer
	size uintptr
	seed byte
}

func (b liveBlock) start() uintptr { return uintptr(b.p) }
func (b liveBlock) end() uintptr   { return uintptr(b.p) + b.size }

// Run executes cfg and returns what it observed. The error is a config
// error, ctx's error, or Report.Err.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) (Report, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	rep := Report{Variant: alloc.Variant, Via: cfg.Via}
	return run(ctx, cfg, pathFor(cfg.Via), rep, logger)
}

func run(ctx context.Context, cfg Config, pa path, rep Report, logger *slog.Logger) (Report, error) {
	start := time.Now()
	for round := 0; round < cfg.Rounds; round++ {
		if err := runRound(ctx, cfg, pa, &rep, logger.With("round", round)); err != nil {
			rep.Elapsed = time.Since(start)
			return rep, err
		}
		rep.Rounds++
	}

	rep.Elapsed = time.Since(start)
	logger.Debug("probe finished",
		"variant", rep.Variant,
		"via", rep.Via,
		"allocated", rep.Allocated,
		"failed", rep.Failed,
		"elapsed", rep.Elapsed)
	return rep, rep.Err()
}

func runRound(ctx context.Context, cfg Config, pa path, rep *Report, logger *slog.Logger) error {
	var (
		mu     sync.Mutex
		blocks []liveBlock
	)
	defer func() {
		for _, b := range blocks {
			pa.free(b.p, b.size)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	seq := 0
	for w := 0; w < cfg.Workers; w++ {
		for _, req := range cfg.Requests {
			seed := byte(seq)
			seq++
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				p := pa.alloc(req.Size, req.Alignment)
				aligned := p != nil && alloc.IsAligned(p, req.Alignment)
				if p != nil {
					fill(p, req.Size, seed)
				}

				mu.Lock()
				defer mu.Unlock()
				rep.Requested++
				if p == nil {
					rep.Failed++
					return nil
				}
				rep.Allocated++
				blocks = append(blocks, liveBlock{p, req.Size, seed})
				if !aligned {
					rep.Misaligned++
					logger.Warn("misaligned block", "addr", p, "alignment", req.Alignment)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, pair := range overlapping(blocks) {
		rep.Overlaps++
		logger.Warn("overlapping blocks",
			"a", pair[0].p, "a_size", pair[0].size,
			"b", pair[1].p, "b_size", pair[1].size)
	}
	for _, b := range blocks {
		if !intact(b.p, b.size, b.seed) {
			rep.Corrupted++
			logger.Warn("corrupted block", "addr", b.p, "size", b.size)
		}
	}

	logger.Debug("round checked", "live", len(blocks))
	return nil
}

func fill(p unsafe.Pointer, size uintptr, seed byte) {
	buf := alloc.Bytes(p, size)
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}

func intact(p unsafe.Pointer, size uintptr, seed byte) bool {
	buf := alloc.Bytes(p, size)
	for i := range buf {
		if buf[i] != seed+byte(i) {
			return false
		}
	}
	return true
}

// overlapping pairs each block with the furthest-reaching lower block it
// starts inside of. Zero-size blocks own no bytes and are skipped.
func overlapping(blocks []liveBlock) [][2]liveBlock {
	sorted := make([]liveBlock, 0, len(blocks))
	for _, b := range blocks {
		if b.size > 0 {
			sorted = append(sorted, b)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start() < sorted[j].start() })

	var pairs [][2]liveBlock
	if len(sorted) == 0 {
		return pairs
	}
	reach := sorted[0]
	for _, b := range sorted[1:] {
		if b.start() < reach.end() {
			pairs = append(pairs, [2]liveBlock{reach, b})
		}
		if b.end() > reach.end() {
			reach = b
		}
	}
	return pairs
}

package main

import (
	"fmt"

	"github.com/shivam-909/sysalloc/alloc"
	"github.com/shivam-909/sysalloc/internal/probe"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

type runOptions struct {
	sizes   []uint
	aligns  []uint
	workers int
	rounds  int
	via     string
}

func newRunCmd() *cobra.Command {
	def := probe.DefaultConfig()
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the concurrent conformance probe",
		Long: `The run command issues every (size, align) request once per worker per
round, keeps all blocks of a round live at the same time, and checks them
for alignment, overlap and corruption before releasing them.

Sizes and alignments pair up by position. Without any, a default mix of
word, cache line, page and 64 KiB alignments is used.

Example:
  allocprobe run
  allocprobe run --size 64 --align 8 --size 4096 --align 4096 --workers 16
  allocprobe run --via symbol --rounds 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, opts)
		},
	}

	cmd.Flags().UintSliceVar(&opts.sizes, "size", nil, "Request size in bytes (repeatable)")
	cmd.Flags().UintSliceVar(&opts.aligns, "align", nil, "Request alignment in bytes (repeatable)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", def.Workers, "Concurrent requests per round")
	cmd.Flags().IntVarP(&opts.rounds, "rounds", "r", def.Rounds, "Number of rounds")
	cmd.Flags().StringVar(&opts.via, "via", probe.ViaGo, "Allocation path: go or symbol")
	return cmd
}

func (o runOptions) config() (probe.Config, error) {
	cfg := probe.DefaultConfig()
	cfg.Workers = o.workers
	cfg.Rounds = o.rounds
	cfg.Via = o.via

	if len(o.sizes) != len(o.aligns) {
		return cfg, fmt.Errorf("got %d --size but %d --align values", len(o.sizes), len(o.aligns))
	}
	if len(o.sizes) > 0 {
		cfg.Requests = make([]alloc.Request, len(o.sizes))
		for i := range o.sizes {
			cfg.Requests[i] = alloc.Request{Size: uintptr(o.sizes[i]), Alignment: uintptr(o.aligns[i])}
		}
	}
	return cfg, nil
}

func runProbe(cmd *cobra.Command, opts runOptions) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}

	logger.Debug("starting probe",
		"variant", alloc.Variant,
		"via", cfg.Via,
		"requests", len(cfg.Requests),
		"workers", cfg.Workers,
		"rounds", cfg.Rounds)

	rep, err := probe.Run(cmd.Context(), cfg, logger)
	if jsonOut && rep.Variant != "" {
		if jerr := printJSON(rep); jerr != nil {
			return jerr
		}
	}
	if err != nil {
		return fmt.Errorf("probe failed: %w", err)
	}

	printInfo("\nProbe (%s via %s):\n", rep.Variant, rep.Via)
	printInfo("  Rounds:     %d\n", rep.Rounds)
	printInfo("  Requested:  %d\n", rep.Requested)
	printInfo("  Allocated:  %d\n", rep.Allocated)
	printInfo("  Null:       %d\n", rep.Failed)
	printInfo("  Elapsed:    %s\n", rep.Elapsed)
	printInfo("\n  ✓ All blocks aligned\n")
	printInfo("  ✓ No overlapping blocks\n")
	printInfo("  ✓ No corrupted blocks\n")
	return nil
}

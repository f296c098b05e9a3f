package main

import (
	"fmt"

	"github.com/shivam-909/sysalloc/internal/probe"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newScenariosCmd())
}

func newScenariosCmd() *cobra.Command {
	var via string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Run the fixed end-to-end allocation scenarios",
		Long: `The scenarios command issues three single requests and checks each result:

  small   64 bytes aligned to 8, must succeed
  page    4096 bytes aligned to 4096, must succeed
  absurd  a size beyond the address space, must return null

Example:
  allocprobe scenarios
  allocprobe scenarios --via symbol --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(via)
		},
	}
	cmd.Flags().StringVar(&via, "via", probe.ViaGo, "Allocation path: go or symbol")
	return cmd
}

func runScenarios(via string) error {
	if via != probe.ViaGo && via != probe.ViaSymbol {
		return fmt.Errorf("unknown --via %q (want go or symbol)", via)
	}

	var results []probe.ScenarioResult
	failed := 0
	for _, s := range probe.Scenarios() {
		res := probe.RunScenario(s, via)
		logger.Debug("scenario", "name", s.Name, "addr", fmt.Sprintf("%#x", res.Addr), "passed", res.Passed)
		if !res.Passed {
			failed++
		}
		results = append(results, res)
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	}

	printInfo("\nScenarios (via %s):\n", via)
	for _, res := range results {
		if res.Passed {
			printInfo("  ✓ %-7s size=%d align=%d addr=%#x\n", res.Name, res.Request.Size, res.Request.Alignment, res.Addr)
		} else {
			printInfo("  ✗ %-7s %s\n", res.Name, res.Reason)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

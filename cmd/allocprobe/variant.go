package main

import (
	"runtime"

	"github.com/shivam-909/sysalloc/alloc"
	"github.com/spf13/cobra"
)

var variantCmd = &cobra.Command{
	Use:   "variant",
	Short: "Show which host allocator this binary was built against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonOut {
			return printJSON(map[string]interface{}{
				"variant":    alloc.Variant,
				"available":  alloc.Available,
				"has_symbol": alloc.HasSymbol,
				"goos":       runtime.GOOS,
				"goarch":     runtime.GOARCH,
			})
		}
		printInfo("Host:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
		printInfo("Variant:   %s\n", alloc.Variant)
		printInfo("Available: %t\n", alloc.Available)
		printInfo("Symbol:    %t\n", alloc.HasSymbol)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(variantCmd)
}

// Command refbench drives cost-optimal backward-reference refinement over
// synthetic pixel buffers and reports the resulting bit cost, path length,
// and interval-table statistics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vp8lrefine/backref/cmd/refbench/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "refbench",
		Short:         "Backward-reference refinement benchmark",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

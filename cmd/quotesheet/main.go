package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/quotesheet/internal/config"
)

func main() {
	if err := rootCMD(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCMD(cfg config.Config) *cobra.Command {
	var root = &cobra.Command{
		Use:          "quotesheet",
		Short:        "Extract Cadre Wire quote line items into a spreadsheet",
		SilenceUsage: true,
	}
	root.AddCommand(extractCMD(cfg), serveCMD(cfg))
	return root
}

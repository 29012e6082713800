package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Validate the heap header and report layout metadata",
		Long: `The info command validates the boot-loader header of a heap image and
displays the layout generation, item ceiling, and partition count.

Example:
  smemctl info -i smem.img
  smemctl info -i smem.img --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
	return cmd
}

func runInfo() error {
	h, err := openHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	layoutName := "flat heap"
	if h.Version()>>16 == 12 {
		layoutName = "partitioned"
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"version":     h.Version(),
			"layout":      layoutName,
			"itemCeiling": h.ItemCeiling(),
			"partitions":  len(h.Partitions()),
		})
	}

	printInfo("\nHeap Information:\n")
	printInfo("  File: %s\n", imagePath)
	printInfo("  Layout version: %#x (%s)\n", h.Version(), layoutName)
	printInfo("  Item ceiling: %d\n", h.ItemCeiling())
	printInfo("  Partitions: %d\n", len(h.Partitions()))
	return nil
}

package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newItemsCmd())
}

func newItemsCmd() *cobra.Command {
	var host int
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List allocated items",
		Long: `The items command lists every allocated item in the heap serving the
given remote host (or the global heap when no host is given).

Example:
  smemctl items -i smem.img
  smemctl items -i smem.img --host 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runItems(host)
		},
	}
	cmd.Flags().IntVar(&host, "host", -1, "Remote host whose heap to list")
	return cmd
}

func runItems(host int) error {
	h, err := openHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	items, err := h.Items(host)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(items)
	}

	printInfo("%-8s %-10s %s\n", "ITEM", "SIZE", "CHAIN")
	for _, it := range items {
		chain := "uncached"
		if it.Cached {
			chain = "cached"
		}
		printInfo("%-8d %-10d %s\n", it.Item, it.Size, chain)
	}
	printInfo("\n%d item(s)\n", len(items))
	return nil
}

package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newFreeSpaceCmd())
}

func newFreeSpaceCmd() *cobra.Command {
	var host int
	cmd := &cobra.Command{
		Use:   "free-space",
		Short: "Report remaining allocation space",
		Long: `The free-space command reports the bytes still available for allocation
in the heap serving the given remote host.

Example:
  smemctl free-space -i smem.img --host 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFreeSpace(host)
		},
	}
	cmd.Flags().IntVar(&host, "host", -1, "Remote host whose heap to query")
	return cmd
}

func runFreeSpace(host int) error {
	h, err := openHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	free, err := h.FreeSpace(host)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]int{"free": free})
	}
	printInfo("%d bytes free\n", free)
	return nil
}

package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPartitionsCmd())
}

func newPartitionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partitions",
		Short: "List the discovered partitions",
		Long: `The partitions command lists the global partition and every per-host
partition found in the partition table, with sizes and free space.

Example:
  smemctl partitions -i smem.img`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPartitions()
		},
	}
	return cmd
}

func runPartitions() error {
	h, err := openHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	parts := h.Partitions()
	if jsonOut {
		return printJSON(parts)
	}

	if len(parts) == 0 {
		printInfo("No partitions (flat heap layout)\n")
		return nil
	}
	printInfo("%-8s %-14s %-10s %-10s %s\n", "REMOTE", "HOSTS", "SIZE", "FREE", "CACHELINE")
	for _, p := range parts {
		remote := "global"
		if p.RemoteHost >= 0 {
			remote = strconv.Itoa(p.RemoteHost)
		}
		printInfo("%-8s %5d:%-8d %-10d %-10d %d\n",
			remote, p.Host0, p.Host1, p.Size, p.Free, p.Cacheline)
	}
	return nil
}

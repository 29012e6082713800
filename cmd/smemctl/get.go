package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	var host int
	var raw bool
	cmd := &cobra.Command{
		Use:   "get <item>",
		Short: "Dump an item's payload",
		Long: `The get command looks up an allocated item and dumps its payload as a
hex dump, or as raw bytes with --raw for piping into other tools.

Example:
  smemctl get -i smem.img 137
  smemctl get -i smem.img --host 1 --raw 100 > item.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return fmt.Errorf("invalid item number %q: %w", args[0], err)
			}
			return runGet(host, uint32(item), raw)
		},
	}
	cmd.Flags().IntVar(&host, "host", -1, "Remote host whose heap to search")
	cmd.Flags().BoolVar(&raw, "raw", false, "Write raw payload bytes to stdout")
	return cmd
}

func runGet(host int, item uint32, raw bool) error {
	h, err := openHeap()
	if err != nil {
		return err
	}
	defer h.Close()

	b, err := h.Get(host, item)
	if err != nil {
		return err
	}

	if raw {
		_, err := os.Stdout.Write(b)
		return err
	}
	if phys, ok := h.ToPhys(b); ok {
		printInfo("Item %d: %d bytes at %#x\n\n", item, len(b), phys)
	} else {
		printInfo("Item %d: %d bytes\n\n", item, len(b))
	}
	fmt.Print(hex.Dump(b))
	return nil
}

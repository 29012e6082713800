package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reigadegr/smemkit/hwlock"
	"github.com/reigadegr/smemkit/smem"
)

var (
	// Global flags
	imagePath string
	physBase  uint64
	regionLen int
	verbose   bool
	quiet     bool
	jsonOut   bool
)

var rootCmd = &cobra.Command{
	Use:   "smemctl",
	Short: "Inspect shared-memory heap images",
	Long: `smemctl attaches to a captured shared-memory heap image (or /dev/mem on
hardware) and reports the boot-loader layout: versions, partitions, and
allocated items. All commands attach read-only.`,
	Version: "0.1.0",
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().
		StringVarP(&imagePath, "image", "i", "", "Heap image file (required)")
	rootCmd.PersistentFlags().
		Uint64Var(&physBase, "base", 0, "Physical base address of the image's first byte")
	rootCmd.PersistentFlags().
		IntVar(&regionLen, "size", 0, "Primary region size in bytes (default: whole file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.MarkPersistentFlagRequired("image")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openHeap attaches to the configured image. The image is a snapshot with no
// other processors running against it, so an in-process lock stands in for
// the hardware mutex.
func openHeap() (*smem.Heap, error) {
	size := regionLen
	if size == 0 {
		stat, err := os.Stat(imagePath)
		if err != nil {
			return nil, err
		}
		size = int(stat.Size())
	}
	printVerbose("Attaching to %s (%d bytes at %#x)\n", imagePath, size, physBase)

	h, err := smem.New(smem.Config{
		Primary: smem.Window{Base: physBase, Size: size},
		Mapper:  smem.NewFileMapper(imagePath, physBase, false),
		Lock:    hwlock.NewLocal(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to heap image: %w", err)
	}
	return h, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

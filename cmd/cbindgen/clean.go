package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/defermelowie/cbindgen/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the parse cache",
	Long:  "Remove the on-disk parse cache. The next run re-parses every crate from scratch.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().String("cache-dir", "", "cache directory (default: per-user cache location)")
}

func runClean(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}
	cache, err := driver.OpenDiskCache(dir)
	if err != nil {
		return err
	}
	if err := cache.DropAll(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, "parse cache removed")
	return nil
}

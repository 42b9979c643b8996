package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atomicobject/org-viewer/internal/vaultindex"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the on-disk index cache from scratch",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		cachePath := filepath.Join(root, vaultindex.CacheFileName)
		if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove existing cache: %w", err)
		}
		idx := vaultindex.New(root)
		stats, err := idx.LoadOrBuild()
		if err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
		fmt.Printf("total=%d cached=%d parsed=%d removed=%d\n", stats.Total, stats.Cached, stats.Parsed, stats.Removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

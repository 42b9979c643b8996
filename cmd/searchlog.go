package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/atomicobject/org-viewer/internal/searchlog"
	"github.com/spf13/cobra"
)

var searchlogLimit int

var searchlogCmd = &cobra.Command{
	Use:   "searchlog",
	Short: "Show the most frequent and most recent local search queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		slog, err := searchlog.Open(filepath.Join(root, searchlog.FileName))
		if err != nil {
			return fmt.Errorf("open search log: %w", err)
		}
		defer slog.Close()

		ctx := context.Background()
		top, err := slog.TopQueries(ctx, searchlogLimit)
		if err != nil {
			return err
		}
		fmt.Println("top queries:")
		for _, t := range top {
			fmt.Printf("  %-30s calls=%d hits=%d\n", t.Query, t.Calls, t.TotalHits)
		}

		recent, err := slog.Recent(ctx, searchlogLimit)
		if err != nil {
			return err
		}
		fmt.Println("recent queries:")
		for _, e := range recent {
			fmt.Printf("  %-30s hits=%d at=%d\n", e.Query, e.Hits, e.AtUnix)
		}
		return nil
	},
}

func init() {
	searchlogCmd.Flags().IntVar(&searchlogLimit, "limit", 10, "max rows to print per section")
	rootCmd.AddCommand(searchlogCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print index totals, counts by type and status, and known peers",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		idx, peers, _, err := buildCore(root)
		if err != nil {
			return err
		}

		stats := idx.Stats()
		fmt.Printf("vault: %s\n", root)
		fmt.Printf("documents: %d\n", stats.Total)
		fmt.Println("by type:")
		for t, n := range stats.ByType {
			fmt.Printf("  %-12s %d\n", t, n)
		}
		fmt.Println("by status:")
		for s, n := range stats.ByStatus {
			fmt.Printf("  %-12s %d\n", s, n)
		}

		entries := peers.Peers()
		fmt.Printf("peers configured: %d\n", len(entries))
		for _, p := range entries {
			fmt.Printf("  %s (%s:%d)\n", p.Name, p.Host, p.Port)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

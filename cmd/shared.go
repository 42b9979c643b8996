package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sharedCmd = &cobra.Command{
	Use:   "shared",
	Short: "List documents adopted from peers, with their sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		_, _, sync, err := buildCore(root)
		if err != nil {
			return err
		}

		docs := sync.GetSharedDocuments()
		for _, d := range docs {
			fmt.Printf("%-40s %-12s origin=%s status=%s\n", d.LocalPath, d.Type, d.Meta.OriginName, d.Meta.SyncStatus)
		}
		fmt.Printf("%d shared document(s)\n", len(docs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sharedCmd)
}

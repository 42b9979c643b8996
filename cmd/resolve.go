package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	resolveAction  string
	resolveComment string
	resolveMerged  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Resolve a conflicted shared document",
	Long: `resolve applies one of the four resolution actions to a document in
conflict: accept-origin, keep-local, merge, or reject.
--merged-file is required for merge and is read as the new local content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		_, _, sync, err := buildCore(root)
		if err != nil {
			return err
		}

		merged := ""
		if resolveAction == "merge" {
			if resolveMerged == "" {
				return fmt.Errorf("merge requires --merged-file")
			}
			raw, err := os.ReadFile(resolveMerged)
			if err != nil {
				return fmt.Errorf("read merged file: %w", err)
			}
			merged = string(raw)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if !sync.Resolve(ctx, args[0], resolveAction, merged, resolveComment) {
			return fmt.Errorf("resolve: document %q has no federation block, the action is invalid, or the action failed", args[0])
		}
		fmt.Printf("resolved %s with %s\n", args[0], resolveAction)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveAction, "action", "", "accept-origin | keep-local | merge | reject")
	resolveCmd.Flags().StringVar(&resolveComment, "comment", "", "optional comment, forwarded to the origin on reject")
	resolveCmd.Flags().StringVar(&resolveMerged, "merged-file", "", "path to the merged content (required for --action merge)")
	resolveCmd.MarkFlagRequired("action")
	rootCmd.AddCommand(resolveCmd)
}

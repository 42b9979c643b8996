package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sendMessage string

var sendCmd = &cobra.Command{
	Use:   "send <peer> <path>",
	Short: "Push a local document to a peer's inbox",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		_, peers, sync, err := buildCore(root)
		if err != nil {
			return err
		}

		entry, ok := peers.LookupByName(args[0])
		if !ok {
			return fmt.Errorf("no peer named %q", args[0])
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := sync.Send(ctx, entry, args[1], sendMessage); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		fmt.Printf("sent %s to %s\n", args[1], entry.Name)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendMessage, "message", "", "optional note included in the receive payload")
	rootCmd.AddCommand(sendCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List configured peers and their most recently observed status",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		_, peers, _, err := buildCore(root)
		if err != nil {
			return err
		}

		peers.PollNow(context.Background())
		for _, st := range peers.Status() {
			fmt.Printf("%-20s %-22s %-8s failures=%d\n", st.Name, fmt.Sprintf("%s:%d", st.Host, st.Port), st.Status, st.ConsecutiveFailures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(peersCmd)
}

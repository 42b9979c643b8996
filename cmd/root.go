// Package cmd wires every org-viewer subcommand onto a Cobra root command:
// a package-level rootCmd, package-level flag variables shared by init()
// blocks, and an Execute entry point called from main.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	vaultPath string
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:     "org-viewer",
	Short:   "org-viewer - federated markdown vault indexer and sync daemon",
	Version: "v0.1.0",
	Long: `org-viewer indexes a local markdown vault, tracks a set of configured
peers, and lets you adopt, send, and reconcile documents across instances.`,
}

// Execute runs the CLI, printing a top-level error to stderr on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "org-viewer: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&vaultPath, "vault", "v", ".", "path to the vault root directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging")
}

func resolveVaultPath() (string, error) {
	abs, err := absPath(vaultPath)
	if err != nil {
		return "", fmt.Errorf("resolve vault path: %w", err)
	}
	return abs, nil
}

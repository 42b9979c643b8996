package cmd

import (
	"log"
	"os"

	"github.com/atomicobject/org-viewer/internal/mcpserver"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing search, shared documents, peers, and conflict resolution",
	Long: `Run a Model Context Protocol (MCP) server over stdio exposing this
vault's search, shared-document, peer-status, and conflict-resolution tools.

Example MCP client configuration:
{
  "mcpServers": {
    "org-viewer": {
      "command": "/path/to/org-viewer",
      "args": ["mcp", "--vault", "/path/to/vault"]
    }
  }
}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			log.SetOutput(os.Stderr)
		}

		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		idx, peers, sync, err := buildCore(root)
		if err != nil {
			return err
		}

		s := mcpserver.NewServer(mcpserver.Config{Index: idx, Peers: peers, Sync: sync}, rootCmd.Version)

		if debug {
			log.Printf("starting MCP server for vault %s", root)
		}
		return server.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

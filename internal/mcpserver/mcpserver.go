// Package mcpserver exposes the federation core's search, shared-document
// listing, peer status, and conflict resolution as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atomicobject/org-viewer/internal/federation"
	"github.com/atomicobject/org-viewer/internal/peer"
	"github.com/atomicobject/org-viewer/internal/vaultindex"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Config bundles the core services an MCP tool call needs.
type Config struct {
	Index *vaultindex.Index
	Peers *peer.Registry
	Sync  *federation.Service
}

// NewServer builds an MCP server with all of this module's tools
// registered.
func NewServer(cfg Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"org-viewer",
		version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Search, list shared documents, check peer status, and resolve federation conflicts for a markdown vault."),
	)
	RegisterAll(s, cfg)
	return s
}

// RegisterAll wires every tool onto s: one mcp.NewTool + one handler
// registration per tool.
func RegisterAll(s *server.MCPServer, cfg Config) {
	searchTool := mcp.NewTool("search",
		mcp.WithDescription("Fuzzy-search the local vault index by title, path, and tags. Response: {query,results:[{document,score}]}"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
	)
	s.AddTool(searchTool, searchHandler(cfg))

	sharedTool := mcp.NewTool("shared_documents",
		mcp.WithDescription("List every locally-adopted document carrying a federation block, with its origin and sync status. Response: {documents:[...]}"),
	)
	s.AddTool(sharedTool, sharedDocumentsHandler(cfg))

	peerStatusTool := mcp.NewTool("peer_status",
		mcp.WithDescription("Report live status for configured peers. Response: {peers:[{name,host,port,status,lastSeen,...}]}"),
		mcp.WithBoolean("onlineOnly", mcp.Description("Only include peers currently reachable")),
	)
	s.AddTool(peerStatusTool, peerStatusHandler(cfg))

	resolveTool := mcp.NewTool("resolve_conflict",
		mcp.WithDescription("Resolve a federated document's sync conflict. action is one of accept-origin, keep-local, merge, reject."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path of the document")),
		mcp.WithString("action", mcp.Required(), mcp.Description("accept-origin | keep-local | merge | reject")),
		mcp.WithString("merged", mcp.Description("New body content, required when action is merge")),
		mcp.WithString("comment", mcp.Description("Optional comment sent back to the origin when action is reject")),
	)
	s.AddTool(resolveTool, resolveHandler(cfg))
}

func searchHandler(cfg Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		query, _ := args["query"].(string)
		if query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		results := cfg.Index.Search(query)
		encoded, err := json.Marshal(map[string]interface{}{"query": query, "results": results})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling results: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

func sharedDocumentsHandler(cfg Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		docs := cfg.Sync.GetSharedDocuments()
		encoded, err := json.Marshal(map[string]interface{}{"documents": docs})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling shared documents: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

func peerStatusHandler(cfg Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		onlineOnly, _ := args["onlineOnly"].(bool)

		var statuses interface{}
		if onlineOnly {
			statuses = cfg.Peers.OnlinePeers()
		} else {
			statuses = cfg.Peers.Status()
		}
		encoded, err := json.Marshal(map[string]interface{}{"peers": statuses})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("error marshaling peer status: %s", err)), nil
		}
		return mcp.NewToolResultText(string(encoded)), nil
	}
}

func resolveHandler(cfg Config) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		path, _ := args["path"].(string)
		action, _ := args["action"].(string)
		merged, _ := args["merged"].(string)
		comment, _ := args["comment"].(string)

		if path == "" || action == "" {
			return mcp.NewToolResultError("path and action parameters are required"), nil
		}

		switch action {
		case federation.ActionAcceptOrigin, federation.ActionKeepLocal, federation.ActionMerge, federation.ActionReject:
		default:
			return mcp.NewToolResultError("unknown action: " + action), nil
		}

		if ok := cfg.Sync.Resolve(ctx, path, action, merged, comment); !ok {
			return mcp.NewToolResultError("resolve failed for " + path), nil
		}
		return mcp.NewToolResultText(`{"ok":true}`), nil
	}
}

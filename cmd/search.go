package cmd

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

var (
	searchJSON bool
	searchPeer string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run the weighted fuzzy search against the local vault or a peer",
	Long: `search runs the weighted fuzzy search (title, path, tags) against the
local index. Pass --peer to run the query against a configured peer's
shared surface over its federation search endpoint instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveVaultPath()
		if err != nil {
			return err
		}
		idx, peers, _, err := buildCore(root)
		if err != nil {
			return err
		}

		if searchPeer != "" {
			entry, ok := peers.LookupByName(searchPeer)
			if !ok {
				return fmt.Errorf("no peer named %q", searchPeer)
			}
			return searchRemote(entry.Protocol, entry.Host, entry.Port, args[0])
		}

		hits := idx.Search(args[0])
		if searchJSON {
			return printJSON(hits)
		}

		for _, h := range hits {
			fmt.Printf("%3d  %-40s %s\n", h.Score, h.Document.Title, h.Document.Path)
		}
		fmt.Printf("%d result(s)\n", len(hits))
		return nil
	},
}

type remoteHit struct {
	Path  string   `json:"path"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Tags  []string `json:"tags"`
	Score int      `json:"score"`
}

// searchRemote queries one peer's /api/federation/search endpoint, the same
// wire call the serve command's cross-search proxy makes per online peer.
func searchRemote(protocol, host string, port int, query string) error {
	u := fmt.Sprintf("%s://%s:%d/api/federation/search?q=%s", protocol, host, port, url.QueryEscape(query))
	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
	}
	resp, err := client.Get(u)
	if err != nil {
		return fmt.Errorf("query peer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("peer returned %d", resp.StatusCode)
	}

	var body struct {
		Results []remoteHit `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode peer results: %w", err)
	}

	if searchJSON {
		return printJSON(body.Results)
	}
	for _, h := range body.Results {
		fmt.Printf("%3d  %-40s %s\n", h.Score, h.Title, h.Path)
	}
	fmt.Printf("%d result(s)\n", len(body.Results))
	return nil
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print raw JSON results")
	searchCmd.Flags().StringVar(&searchPeer, "peer", "", "query this configured peer's shared surface instead of the local vault")
	rootCmd.AddCommand(searchCmd)
}

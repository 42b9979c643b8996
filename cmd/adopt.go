package cmd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
)

var (
	adoptInteractive bool
	adoptTarget      string
)

type remoteFile struct {
	Path  string   `json:"path"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Tags  []string `json:"tags"`
}

var adoptCmd = &cobra.Command{
	Use:   "adopt <peer> [path]",
	Short: "Fetch a document from a peer and adopt it into the local vault",
	Long: `adopt fetches a document from a configured peer's shared surface and
writes it locally with a fresh federation frontmatter block.
Pass --interactive to pick the document from the peer's shared
file list with a fuzzy finder instead of naming its path.`,
	Args: cobra.RangeArgs(1, 2),
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

		sourcePath := ""
		if len(args) == 2 {
			sourcePath = args[1]
		}
		if sourcePath == "" {
			if !adoptInteractive {
				return fmt.Errorf("a document path is required without --interactive")
			}
			sourcePath, err = pickRemoteFile(entry.Protocol, entry.Host, entry.Port)
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		// One synchronous hello pass so the adopted document records the
		// peer's instance UUID rather than its configured name.
		peers.PollNow(ctx)

		localPath, checksum, err := sync.Adopt(ctx, entry, sourcePath, adoptTarget)
		if err != nil {
			return fmt.Errorf("adopt: %w", err)
		}
		fmt.Printf("adopted %s -> %s (%s)\n", sourcePath, localPath, checksum)
		return nil
	},
}

// pickRemoteFile lists a peer's shared files and lets the user pick one with
// a fuzzy finder.
func pickRemoteFile(protocol, host string, port int) (string, error) {
	url := fmt.Sprintf("%s://%s:%d/api/federation/files", protocol, host, port)
	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}},
	}
	resp, err := client.Get(url)
	if err != nil {
		return "", fmt.Errorf("list peer files: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("peer returned %d", resp.StatusCode)
	}

	var body struct {
		Files []remoteFile `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode peer file list: %w", err)
	}
	if len(body.Files) == 0 {
		return "", fmt.Errorf("peer has no shared documents")
	}

	idx, err := fuzzyfinder.Find(body.Files, func(i int) string {
		return fmt.Sprintf("%s  (%s)", body.Files[i].Title, body.Files[i].Path)
	})
	if err != nil {
		return "", fmt.Errorf("pick document: %w", err)
	}
	return body.Files[idx].Path, nil
}

func init() {
	adoptCmd.Flags().BoolVar(&adoptInteractive, "interactive", false, "pick the document from a fuzzy-finder list")
	adoptCmd.Flags().StringVar(&adoptTarget, "target", "", "local path to write to (defaults to the source path)")
	rootCmd.AddCommand(adoptCmd)
}

package federation

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrPeerBadResponse marks a peer that answered but answered badly — a
// non-2xx status or an undecodable body — as opposed to not answering at
// all. Callers use errors.Is to tell the two apart.
var ErrPeerBadResponse = errors.New("bad peer response")

// fileResponse mirrors a peer's /api/federation/files/{path} payload.
type fileResponse struct {
	Content     string                 `json:"content"`
	Checksum    string                 `json:"checksum"`
	Frontmatter map[string]interface{} `json:"frontmatter"`
}

func newInsecureClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

func peerURL(protocol, host string, port int, path string) string {
	return fmt.Sprintf("%s://%s:%d%s", protocol, host, port, path)
}

func fetchFile(ctx context.Context, protocol, host string, port int, remotePath string, checksumOnly bool) (fileResponse, error) {
	url := peerURL(protocol, host, port, "/api/federation/files/"+remotePath)
	if checksumOnly {
		url += "?checksumOnly=true"
	}

	client := newInsecureClient(fetchTimeoutSecs * time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fileResponse{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fileResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fileResponse{}, fmt.Errorf("peer returned %d: %w", resp.StatusCode, ErrPeerBadResponse)
	}

	var fr fileResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return fileResponse{}, fmt.Errorf("malformed peer response: %w", ErrPeerBadResponse)
	}
	return fr, nil
}

func postJSON(ctx context.Context, url string, body interface{}, timeout time.Duration) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	client := newInsecureClient(timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("peer returned %d: %w", resp.StatusCode, ErrPeerBadResponse)
	}
	return nil
}

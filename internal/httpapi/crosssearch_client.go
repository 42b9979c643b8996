package httpapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/atomicobject/org-viewer/internal/peer"
)

var crossSearchClient = &http.Client{
	Timeout: 3 * time.Second,
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

// crossSearchPeer issues the same GET /api/federation/search request a
// human would make of a single peer, reusing the wire protocol this
// server itself implements.
func crossSearchPeer(ctx context.Context, st peer.LiveStatus, query string) ([]interface{}, error) {
	u := fmt.Sprintf("%s://%s:%d/api/federation/search?q=%s", st.Protocol, st.Host, st.Port, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := crossSearchClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("peer %s returned %d", st.Name, resp.StatusCode)
	}

	var body struct {
		Results []interface{} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

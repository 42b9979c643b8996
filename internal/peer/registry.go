// Package peer maintains the federation peer registry: this instance's
// identity, the configured remote peers, and their live reachability
// status, polled on a timer.
package peer

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns the on-disk peer config and the in-memory live-status map.
type Registry struct {
	configPath string
	client     *http.Client

	mu             sync.RWMutex
	config         Config
	status         map[string]LiveStatus
	lastConfigTime time.Time
}

// New loads (or creates, with a fresh instance identity) the peer registry
// rooted at vaultRoot.
func New(vaultRoot string) *Registry {
	configPath := filepath.Join(vaultRoot, ConfigFileName)
	cfg := loadOrCreate(configPath)

	r := &Registry{
		configPath: configPath,
		config:     cfg,
		status:     initStatus(cfg),
		client: &http.Client{
			Timeout: helloTimeoutSecs * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
	return r
}

func loadOrCreate(path string) Config {
	if raw, err := os.ReadFile(path); err == nil {
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err == nil {
			return cfg
		}
		log.Printf("peer: failed to parse %s, recreating", ConfigFileName)
	}

	cfg := Config{
		Self: Self{
			InstanceID:    uuid.NewString(),
			DisplayName:   "My Org",
			SharedFolders: []string{"knowledge/"},
			SharedTags:    []string{},
		},
		Peers: []Entry{},
	}

	if raw, err := json.MarshalIndent(cfg, "", "  "); err == nil {
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			log.Printf("peer: failed to write %s: %v", ConfigFileName, err)
		} else {
			log.Printf("peer: created %s with instanceId %s", ConfigFileName, cfg.Self.InstanceID)
		}
	}
	return cfg
}

func initStatus(cfg Config) map[string]LiveStatus {
	m := make(map[string]LiveStatus, len(cfg.Peers))
	for _, p := range cfg.Peers {
		m[p.key()] = LiveStatus{
			Name:     p.Name,
			Host:     p.Host,
			Port:     p.Port,
			Protocol: p.Protocol,
			Status:   "unknown",
		}
	}
	return m
}

// Self returns this instance's identity.
func (r *Registry) Self() Self {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config.Self
}

// Peers returns the configured peer list.
func (r *Registry) Peers() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.config.Peers))
	copy(out, r.config.Peers)
	return out
}

// Status returns a snapshot of every peer's live status.
func (r *Registry) Status() []LiveStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LiveStatus, 0, len(r.status))
	for _, s := range r.status {
		out = append(out, s)
	}
	return out
}

// OnlinePeers returns only peers currently believed reachable.
func (r *Registry) OnlinePeers() []LiveStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LiveStatus, 0, len(r.status))
	for _, s := range r.status {
		if s.Status == "online" {
			out = append(out, s)
		}
	}
	return out
}

// LookupByName returns the configured entry for a peer name, if any.
func (r *Registry) LookupByName(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.config.Peers {
		if p.Name == name {
			return p, true
		}
	}
	return Entry{}, false
}

// Run starts the polling loop: an immediate poll followed by one every
// pollInterval seconds, until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	r.pollAll(ctx)

	ticker := time.NewTicker(pollInterval * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollAll(ctx)
		}
	}
}

// PollNow runs one synchronous poll pass over every configured peer
// outside the regular Run loop's cadence. Used by the "peers" and "adopt"
// CLI commands, which need a status snapshot before acting on it.
func (r *Registry) PollNow(ctx context.Context) {
	r.pollAll(ctx)
}

func (r *Registry) pollAll(ctx context.Context) {
	r.checkConfigReload()

	peers := r.Peers()
	var wg sync.WaitGroup
	for _, p := range peers {
		if r.shouldSkip(p) {
			continue
		}
		wg.Add(1)
		go func(p Entry) {
			defer wg.Done()
			r.pollOne(ctx, p)
		}(p)
	}
	wg.Wait()
}

func (r *Registry) shouldSkip(p Entry) bool {
	r.mu.RLock()
	s, ok := r.status[p.key()]
	r.mu.RUnlock()
	if !ok {
		return true
	}
	if s.ConsecutiveFailures < failureThreshold {
		return false
	}
	last, err := time.Parse(time.RFC3339, s.LastSeen)
	if err != nil {
		return false
	}
	return time.Since(last) < backoffInterval*time.Second
}

func (r *Registry) pollOne(ctx context.Context, p Entry) {
	key := p.key()
	url := fmt.Sprintf("%s://%s/api/federation/hello", p.Protocol, key)

	start := time.Now()
	reqCtx, cancel := context.WithTimeout(ctx, helloTimeoutSecs*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		r.markOffline(key, p)
		return
	}

	resp, err := r.client.Do(req)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp != nil {
			resp.Body.Close()
		}
		r.markOffline(key, p)
		return
	}
	defer resp.Body.Close()

	var hello HelloResponse
	if err := json.NewDecoder(resp.Body).Decode(&hello); err != nil {
		r.markOffline(key, p)
		return
	}
	latency := time.Since(start)

	r.mu.Lock()
	s := r.status[key]
	wasOffline := s.Status != "online"
	s.Status = "online"
	s.InstanceID = hello.InstanceID
	s.DisplayName = hello.DisplayName
	s.SharedFolders = hello.SharedFolders
	s.SharedTags = hello.SharedTags
	s.DocumentCount = hello.Stats.DocumentCount
	s.LastSeen = time.Now().UTC().Format(time.RFC3339)
	s.LatencyMs = latency.Milliseconds()
	s.ConsecutiveFailures = 0
	r.status[key] = s
	r.mu.Unlock()

	if wasOffline {
		log.Printf("peer: %s (%s) online", p.Name, key)
	}
}

func (r *Registry) markOffline(key string, p Entry) {
	r.mu.Lock()
	s := r.status[key]
	wasOnline := s.Status == "online"
	s.ConsecutiveFailures++
	s.Status = "offline"
	r.status[key] = s
	r.mu.Unlock()

	if wasOnline {
		log.Printf("peer: %s (%s) offline", p.Name, key)
	}
}

// checkConfigReload compares the config file's mtime against the last
// observed value. The first observation after startup only sets the
// baseline; it never triggers a reload.
func (r *Registry) checkConfigReload() {
	info, err := os.Stat(r.configPath)
	if err != nil {
		return
	}
	mtime := info.ModTime()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !mtime.After(r.lastConfigTime) {
		return
	}
	first := r.lastConfigTime.IsZero()
	r.lastConfigTime = mtime
	if first {
		return
	}

	newCfg := loadOrCreate(r.configPath)
	oldCount := len(r.config.Peers)
	newCount := len(newCfg.Peers)

	newKeys := make(map[string]bool, len(newCfg.Peers))
	for _, p := range newCfg.Peers {
		newKeys[p.key()] = true
	}
	for _, p := range newCfg.Peers {
		if _, ok := r.status[p.key()]; !ok {
			r.status[p.key()] = LiveStatus{Name: p.Name, Host: p.Host, Port: p.Port, Protocol: p.Protocol, Status: "unknown"}
		}
	}
	for k := range r.status {
		if !newKeys[k] {
			delete(r.status, k)
		}
	}

	r.config = newCfg
	if oldCount != newCount {
		log.Printf("peer: config hot-reloaded: %d -> %d peers", oldCount, newCount)
	}
}

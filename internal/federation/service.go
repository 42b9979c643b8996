package federation

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atomicobject/org-viewer/internal/peer"
	"github.com/atomicobject/org-viewer/internal/vault"
	"github.com/atomicobject/org-viewer/internal/vaultindex"
)

// Service drives federation sync for one vault: adopting documents from
// peers, tracking their drift against the origin, and resolving conflicts.
type Service struct {
	vaultRoot string
	index     *vaultindex.Index
	peers     *peer.Registry

	mu        sync.RWMutex
	localHost string
	localPort int
	listeners []StatusListener
}

// New constructs a Service bound to a vault's index and peer registry.
func New(vaultRoot string, index *vaultindex.Index, peers *peer.Registry) *Service {
	return &Service{
		vaultRoot: vaultRoot,
		index:     index,
		peers:     peers,
	}
}

// SetLocalHost records this instance's own advertised host:port, used when
// notifying an origin peer of a rejection.
func (s *Service) SetLocalHost(host string, port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.localHost = host
	s.localPort = port
}

// Subscribe registers a listener for sync-status transitions.
func (s *Service) Subscribe(l StatusListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Service) emit(evt StatusEvent) {
	s.mu.RLock()
	listeners := make([]StatusListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l.OnSyncStatusChange(evt)
	}
}

// Adopt fetches a document from a peer and writes it locally with a fresh
// federation frontmatter block. The origin-peer field
// records the remote instance UUID as last reported by hello-polling; a
// peer that has never answered a hello falls back to its configured name.
func (s *Service) Adopt(ctx context.Context, p peer.Entry, sourcePath, targetPath string) (localPath, checksum string, err error) {
	fr, err := fetchFile(ctx, p.Protocol, p.Host, p.Port, sourcePath, false)
	if err != nil {
		return "", "", fmt.Errorf("fetch from peer: %w", err)
	}

	local := targetPath
	if local == "" {
		local = sourcePath
	}
	fullLocal := filepath.Join(s.vaultRoot, local)
	if err := os.MkdirAll(filepath.Dir(fullLocal), 0o755); err != nil {
		return "", "", fmt.Errorf("create directory: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	sum := fr.Checksum
	if sum == "" {
		sum = Checksum(fr.Content)
	}

	originPeer := p.Name
	for _, st := range s.peers.Status() {
		if st.Host == p.Host && st.Port == p.Port && st.InstanceID != "" {
			originPeer = st.InstanceID
			break
		}
	}

	var lines []string
	lines = append(lines, "---")
	if t, ok := fr.Frontmatter["type"].(string); ok && t != "" {
		lines = append(lines, "type: "+t)
	}
	if status, ok := fr.Frontmatter["status"].(string); ok && status != "" {
		lines = append(lines, "status: "+status)
	}
	if created, ok := fr.Frontmatter["created"].(string); ok && created != "" {
		lines = append(lines, "created: "+created)
	}
	if rawTags, ok := fr.Frontmatter["tags"].([]interface{}); ok {
		tagStrs := make([]string, 0, len(rawTags))
		for _, t := range rawTags {
			if str, ok := t.(string); ok {
				tagStrs = append(tagStrs, str)
			}
		}
		if len(tagStrs) == 0 {
			lines = append(lines, "tags: []")
		} else {
			lines = append(lines, "tags: ["+strings.Join(tagStrs, ", ")+"]")
		}
	}

	lines = append(lines,
		"federation:",
		fmt.Sprintf("  origin-peer: '%s'", originPeer),
		fmt.Sprintf("  origin-name: '%s'", p.Name),
		fmt.Sprintf("  origin-host: '%s:%d'", p.Host, p.Port),
		fmt.Sprintf("  origin-path: '%s'", sourcePath),
		fmt.Sprintf("  adopted-at: '%s'", now),
		fmt.Sprintf("  origin-checksum: '%s'", sum),
		fmt.Sprintf("  local-checksum: '%s'", sum),
		"  sync-status: 'synced'",
		fmt.Sprintf("  last-sync-check: '%s'", now),
		"---",
	)

	full := strings.Join(lines, "\n") + "\n" + fr.Content
	if err := os.WriteFile(fullLocal, []byte(full), 0o644); err != nil {
		return "", "", fmt.Errorf("write file: %w", err)
	}

	log.Printf("federation: adopted %s -> %s (from %s)", sourcePath, local, p.Name)
	return local, sum, nil
}

// Send pushes a local document to a peer's inbox. It
// mutates no local state — the document is simply read, stripped of
// frontmatter, and POSTed.
func (s *Service) Send(ctx context.Context, p peer.Entry, localPath, message string) error {
	doc, ok := s.index.GetWithContent(localPath)
	if !ok {
		return fmt.Errorf("document not found: %s", localPath)
	}

	self := s.peers.Self()
	s.mu.RLock()
	hostStr := ""
	if s.localHost != "" {
		hostStr = fmt.Sprintf("%s:%d", s.localHost, s.localPort)
	}
	s.mu.RUnlock()

	payload := ReceivePayload{
		From: SenderIdentity{
			InstanceID:  self.InstanceID,
			DisplayName: self.DisplayName,
			Host:        hostStr,
		},
		Document: SendDocument{
			Title:      doc.Title,
			Content:    doc.Content,
			Tags:       doc.Tags,
			SourcePath: localPath,
		},
		Message: message,
	}

	url := peerURL(p.Protocol, p.Host, p.Port, "/api/federation/receive")
	reqCtx, cancel := context.WithTimeout(ctx, sendTimeoutSecs*time.Second)
	defer cancel()
	if err := postJSON(reqCtx, url, payload, sendTimeoutSecs*time.Second); err != nil {
		return fmt.Errorf("send to peer: %w", err)
	}

	log.Printf("federation: sent %s to %s", localPath, p.Name)
	return nil
}

// WriteIncoming writes a document pushed by a peer into the vault's inbox.
func (s *Service) WriteIncoming(fromInstanceID, fromDisplayName, fromHost, title, content string, tags []string, sourcePath, message string) (string, error) {
	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	slug := vault.Slug(title, 50)
	fromSlug := vault.Slug(fromDisplayName, 0)

	filename := fmt.Sprintf("%s-from-%s-%s.md", timestamp, fromSlug, slug)
	inboxPath := filepath.Join(s.vaultRoot, "inbox", filename)
	if err := os.MkdirAll(filepath.Dir(inboxPath), 0o755); err != nil {
		return "", err
	}

	tagsStr := "[]"
	if len(tags) > 0 {
		quoted := make([]string, len(tags))
		for i, t := range tags {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		tagsStr = "[" + strings.Join(quoted, ", ") + "]"
	}

	frontmatter := fmt.Sprintf(
		"---\ntype: inbox\ncreated: '%s'\nsource: peer\nfrom-name: %s\nfrom-instance: %s\nfrom-host: %s\noriginal-path: %s\ntags: %s\n---",
		time.Now().UTC().Format("2006-01-02"), fromDisplayName, fromInstanceID, fromHost, sourcePath, tagsStr,
	)

	var body strings.Builder
	fmt.Fprintf(&body, "# %s\n\n", title)
	if message != "" {
		fmt.Fprintf(&body, "> **Message from %s**: %s\n\n", fromDisplayName, message)
	}
	fmt.Fprintf(&body, "*Shared from %s (%s)*\n\n---\n\n%s", fromDisplayName, sourcePath, content)

	full := frontmatter + "\n" + body.String()
	if err := os.WriteFile(inboxPath, []byte(full), 0o644); err != nil {
		return "", err
	}

	log.Printf("federation: received document from %s: %s", fromDisplayName, filename)
	return "inbox/" + filename, nil
}

// HandleRejection records an inbound rejection notice from a peer that
// previously adopted one of our documents: it writes an inbox document so
// the origin-side user sees why their update was declined.
func (s *Service) HandleRejection(fromInstanceID, fromDisplayName, fromHost, originalPath, comment string) (string, error) {
	title := fmt.Sprintf("%s rejected your update to %s", fromDisplayName, originalPath)
	return s.WriteIncoming(fromInstanceID, fromDisplayName, fromHost, title, "", nil, originalPath, comment)
}

// GetSharedDocuments scans the index for every document carrying a
// federation block.
func (s *Service) GetSharedDocuments() []SharedDocument {
	var shared []SharedDocument
	for _, doc := range s.index.All() {
		raw, err := os.ReadFile(filepath.Join(s.vaultRoot, doc.Path))
		if err != nil {
			continue
		}
		meta, ok := ExtractMeta(string(raw))
		if !ok || meta.OriginPeer == "" {
			continue
		}
		shared = append(shared, SharedDocument{
			LocalPath: doc.Path,
			Title:     doc.Title,
			Type:      string(doc.Type),
			Tags:      doc.Tags,
			Meta:      meta,
		})
	}
	return shared
}

// HandleLocalChange checks whether a just-modified file is a federation
// document and, if its body checksum has drifted, advances its
// sync-status.
func (s *Service) HandleLocalChange(path string) {
	raw, err := os.ReadFile(filepath.Join(s.vaultRoot, path))
	if err != nil {
		return
	}
	content := string(raw)
	meta, ok := ExtractMeta(content)
	if !ok || meta.OriginPeer == "" || meta.SyncStatus == StatusRejected {
		return
	}

	body := Body(content)
	current := Checksum(body)
	if current == meta.LocalChecksum {
		return
	}

	oldStatus := meta.SyncStatus
	newStatus := StatusLocalModified
	if oldStatus == StatusOriginModified {
		newStatus = StatusConflict
	}
	if oldStatus == newStatus {
		return
	}

	s.applyUpdate(path, map[string]string{
		"local-checksum": current,
		"sync-status":    newStatus,
	})
	s.emit(StatusEvent{
		Type:      "sync-status-changed",
		Path:      path,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		Peer:      meta.OriginName,
		TimeMilli: time.Now().UnixMilli(),
	})
}

// RunDriftPolling starts the periodic origin-checksum check, one pass per
// minute over every adopted document.
func (s *Service) RunDriftPolling(ctx context.Context) {
	ticker := time.NewTicker(syncPollInterval * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAllOrigins(ctx)
		}
	}
}

func (s *Service) checkAllOrigins(ctx context.Context) {
	for _, doc := range s.GetSharedDocuments() {
		if doc.Meta.SyncStatus == StatusRejected {
			continue
		}
		s.checkOriginChecksum(ctx, doc.LocalPath, doc.Meta)
	}
}

func (s *Service) checkOriginChecksum(ctx context.Context, localPath string, meta Meta) {
	host, port := splitOriginHost(meta.OriginHost)
	p, ok := s.findOnlinePeer(host, port)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, driftTimeoutSecs*time.Second)
	defer cancel()
	fr, err := fetchFile(reqCtx, p.Protocol, p.Host, p.Port, meta.OriginPath, true)
	if err != nil {
		return // origin unreachable, skip silently
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if fr.Checksum != meta.OriginChecksum {
		oldStatus := meta.SyncStatus
		newStatus := StatusOriginModified
		if oldStatus == StatusLocalModified {
			newStatus = StatusConflict
		}
		if oldStatus == newStatus {
			s.applyUpdate(localPath, map[string]string{
				"origin-checksum": fr.Checksum,
				"last-sync-check": now,
			})
			return
		}

		s.applyUpdate(localPath, map[string]string{
			"origin-checksum": fr.Checksum,
			"sync-status":     newStatus,
			"last-sync-check": now,
		})
		s.emit(StatusEvent{
			Type:      "sync-status-changed",
			Path:      localPath,
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Peer:      meta.OriginName,
			TimeMilli: time.Now().UnixMilli(),
		})
		log.Printf("federation: %s -> %s (origin changed)", localPath, newStatus)
		return
	}

	s.applyUpdate(localPath, map[string]string{"last-sync-check": now})
}

// GetConflictDiff fetches the current origin content so a caller can
// compare it against the local copy.
func (s *Service) GetConflictDiff(ctx context.Context, localPath string) (ConflictDiff, error) {
	raw, err := os.ReadFile(filepath.Join(s.vaultRoot, localPath))
	if err != nil {
		return ConflictDiff{}, fmt.Errorf("read local document: %w", err)
	}
	content := string(raw)
	meta, ok := ExtractMeta(content)
	if !ok {
		return ConflictDiff{}, fmt.Errorf("no federation block in %s", localPath)
	}

	host, port := splitOriginHost(meta.OriginHost)
	p, ok := s.findOnlinePeer(host, port)
	if !ok {
		return ConflictDiff{}, fmt.Errorf("origin %s is not online", meta.OriginHost)
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeoutSecs*time.Second)
	defer cancel()
	fr, err := fetchFile(reqCtx, p.Protocol, p.Host, p.Port, meta.OriginPath, false)
	if err != nil {
		return ConflictDiff{}, fmt.Errorf("fetch origin content: %w", err)
	}

	localBody := Body(content)
	return ConflictDiff{
		LocalContent:   localBody,
		OriginContent:  fr.Content,
		LocalChecksum:  Checksum(localBody),
		OriginChecksum: fr.Checksum,
	}, nil
}

// Resolve applies a conflict resolution action.
func (s *Service) Resolve(ctx context.Context, localPath, action, mergedContent, comment string) bool {
	raw, err := os.ReadFile(filepath.Join(s.vaultRoot, localPath))
	if err != nil {
		return false
	}
	content := string(raw)
	meta, ok := ExtractMeta(content)
	if !ok {
		return false
	}

	now := time.Now().UTC().Format(time.RFC3339)

	switch action {
	case ActionAcceptOrigin:
		diff, err := s.GetConflictDiff(ctx, localPath)
		if err != nil {
			return false
		}
		newFile := replaceAfterFrontmatter(content, diff.OriginContent)
		fullPath := filepath.Join(s.vaultRoot, localPath)
		if err := os.WriteFile(fullPath, []byte(newFile), 0o644); err != nil {
			return false
		}
		s.applyUpdate(localPath, map[string]string{
			"local-checksum":  diff.OriginChecksum,
			"origin-checksum": diff.OriginChecksum,
			"sync-status":     StatusSynced,
			"last-sync-check": now,
		})

	case ActionKeepLocal:
		s.applyUpdate(localPath, map[string]string{
			"sync-status":     StatusSynced,
			"last-sync-check": now,
		})

	case ActionMerge:
		if mergedContent == "" {
			return false
		}
		newFile := replaceAfterFrontmatter(content, mergedContent)
		fullPath := filepath.Join(s.vaultRoot, localPath)
		if err := os.WriteFile(fullPath, []byte(newFile), 0o644); err != nil {
			return false
		}
		s.applyUpdate(localPath, map[string]string{
			"local-checksum":  Checksum(mergedContent),
			"sync-status":     StatusSynced,
			"last-sync-check": now,
		})

	case ActionReject:
		s.applyUpdate(localPath, map[string]string{"sync-status": StatusRejected})
		if comment != "" {
			s.notifyRejection(ctx, meta, comment)
		}

	default:
		return false
	}

	return true
}

func (s *Service) notifyRejection(ctx context.Context, meta Meta, comment string) {
	host, port := splitOriginHost(meta.OriginHost)
	p, ok := s.findOnlinePeer(host, port)
	if !ok {
		return
	}

	self := s.peers.Self()
	s.mu.RLock()
	hostStr := "unknown"
	if s.localHost != "" {
		hostStr = fmt.Sprintf("%s:%d", s.localHost, s.localPort)
	}
	s.mu.RUnlock()

	url := peerURL(p.Protocol, p.Host, p.Port, "/api/federation/shared/respond")
	body := map[string]interface{}{
		"from": map[string]string{
			"instanceId":  self.InstanceID,
			"displayName": self.DisplayName,
			"host":        hostStr,
		},
		"action":       "rejected",
		"originalPath": meta.OriginPath,
		"comment":      comment,
	}

	reqCtx, cancel := context.WithTimeout(ctx, sendTimeoutSecs*time.Second)
	defer cancel()
	if err := postJSON(reqCtx, url, body, sendTimeoutSecs*time.Second); err != nil {
		log.Printf("federation: failed to notify origin of rejection: %v", err)
	}
}

func (s *Service) applyUpdate(localPath string, updates map[string]string) {
	fullPath := filepath.Join(s.vaultRoot, localPath)
	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return
	}
	updated := UpdateFields(string(raw), updates)
	_ = os.WriteFile(fullPath, []byte(updated), 0o644)
}

func (s *Service) findOnlinePeer(host string, port int) (peer.Entry, bool) {
	for _, st := range s.peers.Status() {
		if st.Host == host && st.Port == port && st.Status == "online" {
			return peer.Entry{Name: st.Name, Host: st.Host, Port: st.Port, Protocol: st.Protocol}, true
		}
	}
	return peer.Entry{}, false
}

func splitOriginHost(originHost string) (string, int) {
	host, portStr, found := strings.Cut(originHost, ":")
	if !found {
		return originHost, 3847
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 3847
	}
	return host, port
}

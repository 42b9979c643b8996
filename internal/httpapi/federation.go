package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atomicobject/org-viewer/internal/federation"
	"github.com/atomicobject/org-viewer/internal/peer"
)

type helloResponse struct {
	InstanceID    string     `json:"instanceId"`
	DisplayName   string     `json:"displayName"`
	SharedFolders []string   `json:"sharedFolders"`
	SharedTags    []string   `json:"sharedTags"`
	Stats         helloStats `json:"stats"`
	UptimeSeconds int64      `json:"uptimeSeconds"`
}

type helloStats struct {
	DocumentCount int `json:"documentCount"`
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	self := s.peers.Self()
	writeJSON(w, helloResponse{
		InstanceID:    self.InstanceID,
		DisplayName:   self.DisplayName,
		SharedFolders: self.SharedFolders,
		SharedTags:    self.SharedTags,
		Stats:         helloStats{DocumentCount: s.index.Stats().Total},
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

// inSharedSurface reports whether path falls under a configured shared
// folder prefix. Folders are the only exposure gate on the federation read
// surface; shared tags are advertised in the hello payload but never widen
// what a peer may fetch.
func (s *Server) inSharedSurface(path string) bool {
	self := s.peers.Self()
	for _, folder := range self.SharedFolders {
		if strings.HasPrefix(path, folder) {
			return true
		}
	}
	return false
}

func (s *Server) handleFederationSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	typeFilter := r.URL.Query().Get("type")
	tagFilter := r.URL.Query().Get("tag")
	limit := 50
	if lim := r.URL.Query().Get("limit"); lim != "" {
		if n, err := strconv.Atoi(lim); err == nil && n > 0 {
			limit = n
		}
	}

	var results []map[string]interface{}
	for _, hit := range s.index.Search(q) {
		doc := hit.Document
		if !s.inSharedSurface(doc.Path) {
			continue
		}
		if typeFilter != "" && string(doc.Type) != typeFilter {
			continue
		}
		if tagFilter != "" && !containsFold(doc.Tags, tagFilter) {
			continue
		}
		results = append(results, map[string]interface{}{
			"path":  doc.Path,
			"title": doc.Title,
			"type":  doc.Type,
			"tags":  doc.Tags,
			"score": hit.Score,
		})
		if len(results) >= limit {
			break
		}
	}
	writeJSON(w, map[string]interface{}{"results": results})
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func (s *Server) handleFederationFileList(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	tag := r.URL.Query().Get("tag")

	var out []map[string]interface{}
	for _, doc := range s.index.All() {
		if !s.inSharedSurface(doc.Path) {
			continue
		}
		if folder != "" && !strings.HasPrefix(doc.Path, folder) {
			continue
		}
		if tag != "" && !containsFold(doc.Tags, tag) {
			continue
		}
		out = append(out, map[string]interface{}{
			"path":  doc.Path,
			"title": doc.Title,
			"type":  doc.Type,
			"tags":  doc.Tags,
		})
	}
	writeJSON(w, map[string]interface{}{"files": out})
}

func (s *Server) handleFederationFile(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if !s.inSharedSurface(path) {
		writeError(w, newError(KindForbidden, "path not in a shared surface: "+path))
		return
	}

	doc, ok := s.index.GetWithContent(path)
	if !ok {
		writeError(w, newError(KindNotFound, "no such document: "+path))
		return
	}

	checksum := federation.Checksum(doc.Content)

	if boolQuery(r, "checksumOnly") {
		writeJSON(w, map[string]interface{}{
			"checksum": checksum,
			"updated":  doc.Updated,
		})
		return
	}

	fm := map[string]interface{}{
		"type": string(doc.Type),
		"tags": doc.Tags,
	}
	if doc.Status != "" {
		fm["status"] = doc.Status
	}
	if doc.Created != "" {
		fm["created"] = doc.Created
	}

	writeJSON(w, map[string]interface{}{
		"content":     doc.Content,
		"checksum":    checksum,
		"frontmatter": fm,
	})
}

func (s *Server) handleReceive(w http.ResponseWriter, r *http.Request) {
	var payload federation.ReceivePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, newError(KindBadRequest, "malformed receive payload: "+err.Error()))
		return
	}
	if payload.Document.Title == "" {
		writeError(w, newError(KindBadRequest, "document.title is required"))
		return
	}

	relPath, err := s.sync.WriteIncoming(
		payload.From.InstanceID, payload.From.DisplayName, payload.From.Host,
		payload.Document.Title, payload.Document.Content, payload.Document.Tags,
		payload.Document.SourcePath, payload.Message,
	)
	if err != nil {
		writeError(w, newError(KindInternal, "write incoming document: "+err.Error()))
		return
	}
	writeJSON(w, map[string]string{"path": relPath})
}

func (s *Server) handleSharedRespond(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From         federation.SenderIdentity `json:"from"`
		Action       string                    `json:"action"`
		OriginalPath string                    `json:"originalPath"`
		Comment      string                    `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, newError(KindBadRequest, "malformed respond payload: "+err.Error()))
		return
	}
	if body.OriginalPath == "" {
		writeError(w, newError(KindBadRequest, "originalPath is required"))
		return
	}

	relPath, err := s.sync.HandleRejection(body.From.InstanceID, body.From.DisplayName, body.From.Host, body.OriginalPath, body.Comment)
	if err != nil {
		writeError(w, newError(KindInternal, "record rejection: "+err.Error()))
		return
	}
	writeJSON(w, map[string]string{"path": relPath})
}

func (s *Server) handleSharedDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.sync.GetSharedDocuments())
}

func (s *Server) handleAdopt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Peer       string `json:"peer"`
		SourcePath string `json:"sourcePath"`
		TargetPath string `json:"targetPath"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Peer == "" || body.SourcePath == "" {
		writeError(w, newError(KindBadRequest, "peer and sourcePath are required"))
		return
	}
	p, ok := s.peers.LookupByName(body.Peer)
	if !ok {
		writeError(w, newError(KindBadRequest, "unknown peer: "+body.Peer))
		return
	}

	ctx, cancel := ctxWithTimeout(r, 10*time.Second)
	defer cancel()
	localPath, checksum, err := s.sync.Adopt(ctx, p, body.SourcePath, body.TargetPath)
	if err != nil {
		writeError(w, upstreamError("adopt failed", err))
		return
	}
	writeJSON(w, map[string]string{"localPath": localPath, "checksum": checksum})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Peer      string `json:"peer"`
		LocalPath string `json:"localPath"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Peer == "" || body.LocalPath == "" {
		writeError(w, newError(KindBadRequest, "peer and localPath are required"))
		return
	}
	p, ok := s.peers.LookupByName(body.Peer)
	if !ok {
		writeError(w, newError(KindBadRequest, "unknown peer: "+body.Peer))
		return
	}

	ctx, cancel := ctxWithTimeout(r, 5*time.Second)
	defer cancel()
	if err := s.sync.Send(ctx, p, body.LocalPath, body.Message); err != nil {
		writeError(w, upstreamError("send failed", err))
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path    string `json:"path"`
		Action  string `json:"action"`
		Merged  string `json:"merged"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		writeError(w, newError(KindBadRequest, "path is required"))
		return
	}
	switch body.Action {
	case federation.ActionAcceptOrigin, federation.ActionKeepLocal, federation.ActionMerge, federation.ActionReject:
	default:
		writeError(w, newError(KindBadRequest, "unknown resolve action: "+body.Action))
		return
	}

	ctx, cancel := ctxWithTimeout(r, 10*time.Second)
	defer cancel()
	if ok := s.sync.Resolve(ctx, body.Path, body.Action, body.Merged, body.Comment); !ok {
		writeError(w, newError(KindInternal, "resolve failed for "+body.Path))
		return
	}
	writeJSON(w, map[string]bool{"ok": true})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, newError(KindBadRequest, "path is required"))
		return
	}
	ctx, cancel := ctxWithTimeout(r, 10*time.Second)
	defer cancel()
	diff, err := s.sync.GetConflictDiff(ctx, path)
	if err != nil {
		writeError(w, upstreamError("fetch origin for diff", err))
		return
	}
	writeJSON(w, diff)
}

// upstreamError maps a peer-call failure onto the right gateway status: a
// peer that answered with a non-2xx status or a malformed body is a 502, a
// peer that never answered (timeout, connection refused) a 504.
func upstreamError(msg string, err error) *apiError {
	kind := KindUpstreamUnreachable
	if errors.Is(err, federation.ErrPeerBadResponse) {
		kind = KindUpstreamBadResponse
	}
	return newError(kind, msg+": "+err.Error())
}

// handleCrossSearch fans the local query out to every online peer's
// /api/federation/search endpoint concurrently and merges results tagged
// with their origin peer.
func (s *Server) handleCrossSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, newError(KindBadRequest, "q is required"))
		return
	}

	online := s.peers.OnlinePeers()
	type peerResult struct {
		Peer    string        `json:"peer"`
		Results []interface{} `json:"results"`
	}

	ctx, cancel := ctxWithTimeout(r, 3*time.Second)
	defer cancel()

	var mu sync.Mutex
	var wg sync.WaitGroup
	merged := make([]peerResult, 0, len(online))
	for _, st := range online {
		wg.Add(1)
		go func(st peer.LiveStatus) {
			defer wg.Done()
			res, err := crossSearchPeer(ctx, st, q)
			if err != nil {
				return
			}
			mu.Lock()
			merged = append(merged, peerResult{Peer: st.Name, Results: res})
			mu.Unlock()
		}(st)
	}
	wg.Wait()

	writeJSON(w, map[string]interface{}{"query": q, "peers": merged})
}

package httpapi

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/atomicobject/org-viewer/internal/document"
)

// statusResponse is the combined dashboard payload behind /api/status.
type statusResponse struct {
	UptimeSeconds   int64          `json:"uptimeSeconds"`
	Total           int            `json:"total"`
	ByType          map[string]int `json:"byType"`
	ByStatus        map[string]int `json:"byStatus"`
	TopTags         []tagCount     `json:"topTags"`
	RecentlyUpdated []recentDoc    `json:"recentlyUpdated"`
}

type tagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type recentDoc struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Updated string `json:"updated"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.index.Stats()
	docs := s.index.All()

	tagCounts := make(map[string]int)
	for _, d := range docs {
		for _, tag := range d.Tags {
			tagCounts[tag]++
		}
	}
	tags := make([]tagCount, 0, len(tagCounts))
	for tag, count := range tagCounts {
		tags = append(tags, tagCount{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > 10 {
		tags = tags[:10]
	}

	updated := make([]document.Document, 0, len(docs))
	for _, d := range docs {
		if d.Updated != "" {
			updated = append(updated, d)
		}
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].Updated > updated[j].Updated })
	if len(updated) > 5 {
		updated = updated[:5]
	}
	recent := make([]recentDoc, len(updated))
	for i, d := range updated {
		recent[i] = recentDoc{Path: d.Path, Title: d.Title, Updated: d.Updated}
	}

	byType := make(map[string]int, len(stats.ByType))
	for t, c := range stats.ByType {
		byType[string(t)] = c
	}

	writeJSON(w, statusResponse{
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
		Total:           stats.Total,
		ByType:          byType,
		ByStatus:        stats.ByStatus,
		TopTags:         tags,
		RecentlyUpdated: recent,
	})
}

// graphNode and graphEdge expose the whole-vault link graph, reusing the
// backlink data the index already maintains.
type graphNode struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Status    string `json:"status,omitempty"`
	LinkCount int    `json:"linkCount"`
}

type graphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	docs := s.index.All()
	nodes := make([]graphNode, len(docs))
	var edges []graphEdge
	for i, d := range docs {
		nodes[i] = graphNode{
			Path:      d.Path,
			Title:     d.Title,
			Type:      string(d.Type),
			Status:    d.Status,
			LinkCount: len(d.Links),
		}
		for _, src := range d.Backlinks {
			edges = append(edges, graphEdge{From: src, To: d.Path})
		}
	}
	writeJSON(w, map[string]interface{}{"nodes": nodes, "edges": edges})
}

func (s *Server) handleLocalSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, newError(KindBadRequest, "q is required"))
		return
	}
	results := s.index.Search(query)
	if s.onSearch != nil {
		s.onSearch(query, len(results))
	}
	writeJSON(w, map[string]interface{}{"query": query, "results": results})
}

func (s *Server) handleLocalDocument(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	includeContent := r.URL.Query().Get("content") != ""
	doc, ok := s.index.Get(path)
	if !ok {
		writeError(w, newError(KindNotFound, "no such document: "+path))
		return
	}
	if includeContent {
		doc, _ = s.index.GetWithContent(path)
	}
	writeJSON(w, doc)
}

func (s *Server) handlePeerList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"self":  s.peers.Self(),
		"peers": s.peers.Peers(),
	})
}

func (s *Server) handlePeerStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("online") == "true" {
		writeJSON(w, s.peers.OnlinePeers())
		return
	}
	writeJSON(w, s.peers.Status())
}

func boolQuery(r *http.Request, key string) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

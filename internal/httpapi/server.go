// Package httpapi is the thin HTTP surface: local query endpoints backed
// by the document index, and the peer-to-peer federation wire protocol
// backed by the peer registry and sync service. Built on stdlib
// net/http.ServeMux using the method+path-parameter patterns available
// since Go 1.22.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/atomicobject/org-viewer/internal/federation"
	"github.com/atomicobject/org-viewer/internal/peer"
	"github.com/atomicobject/org-viewer/internal/vaultindex"
)

// Server wires the index, peer registry, and sync service behind a single
// http.Handler.
type Server struct {
	index     *vaultindex.Index
	peers     *peer.Registry
	sync      *federation.Service
	startedAt time.Time
	mux       *http.ServeMux
	onSearch  func(query string, hits int)
}

// New builds the HTTP surface. onSearch, if non-nil, is invoked after every
// local search so the caller (internal/searchlog) can record it without
// httpapi depending on a storage backend directly.
func New(index *vaultindex.Index, peers *peer.Registry, sync *federation.Service, onSearch func(query string, hits int)) *Server {
	s := &Server{
		index:     index,
		peers:     peers,
		sync:      sync,
		startedAt: time.Now(),
		onSearch:  onSearch,
	}
	s.mux = http.NewServeMux()
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Local query surface.
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/graph", s.handleGraph)
	s.mux.HandleFunc("GET /api/search", s.handleLocalSearch)
	s.mux.HandleFunc("GET /api/documents/{path...}", s.handleLocalDocument)

	// Peer registry surface.
	s.mux.HandleFunc("GET /api/peers", s.handlePeerList)
	s.mux.HandleFunc("GET /api/peers/status", s.handlePeerStatus)

	// Federation wire protocol.
	s.mux.HandleFunc("GET /api/federation/hello", s.handleHello)
	s.mux.HandleFunc("GET /api/federation/search", s.handleFederationSearch)
	s.mux.HandleFunc("GET /api/federation/search/cross", s.handleCrossSearch)
	s.mux.HandleFunc("GET /api/federation/files", s.handleFederationFileList)
	s.mux.HandleFunc("GET /api/federation/files/{path...}", s.handleFederationFile)
	s.mux.HandleFunc("POST /api/federation/receive", s.handleReceive)
	s.mux.HandleFunc("POST /api/federation/shared/respond", s.handleSharedRespond)

	// Federation management surface, used by the CLI and any future UI.
	s.mux.HandleFunc("GET /api/federation/shared", s.handleSharedDocuments)
	s.mux.HandleFunc("POST /api/federation/adopt", s.handleAdopt)
	s.mux.HandleFunc("POST /api/federation/send", s.handleSend)
	s.mux.HandleFunc("POST /api/federation/resolve", s.handleResolve)
	s.mux.HandleFunc("GET /api/federation/diff", s.handleDiff)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ctxWithTimeout is a small convenience for bounding every blocking call
// that crosses a goroutine boundary.
func ctxWithTimeout(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

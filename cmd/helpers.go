package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/atomicobject/org-viewer/internal/federation"
	"github.com/atomicobject/org-viewer/internal/peer"
	"github.com/atomicobject/org-viewer/internal/vaultindex"
	"github.com/ktr0731/go-fuzzyfinder"
)

func absPath(p string) (string, error) {
	return filepath.Abs(p)
}

// buildCore constructs the index, peer registry, and sync service for one
// vault, the set of collaborators every command below needs. Loading the
// index here mirrors the startup order the long-running serve command
// uses; short-lived commands pay the same cost for a consistent view of
// the vault.
func buildCore(root string) (*vaultindex.Index, *peer.Registry, *federation.Service, error) {
	idx := vaultindex.New(root)
	if _, err := idx.LoadOrBuild(); err != nil {
		return nil, nil, nil, fmt.Errorf("load index: %w", err)
	}
	peers := peer.New(root)
	sync := federation.New(root, idx, peers)
	return idx, peers, sync, nil
}

// pickLocalDocument lets the user fuzzy-pick one document from idx's full
// corpus.
func pickLocalDocument(idx *vaultindex.Index) (string, error) {
	docs := idx.All()
	if len(docs) == 0 {
		return "", fmt.Errorf("vault has no documents")
	}
	i, err := fuzzyfinder.Find(docs, func(i int) string {
		d := docs[i]
		return fmt.Sprintf("%s  (%s)", d.Title, d.Path)
	})
	if err != nil {
		return "", fmt.Errorf("pick document: %w", err)
	}
	return docs[i].Path, nil
}

func printJSON(v interface{}) error {
	enc, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

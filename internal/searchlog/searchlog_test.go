package searchlog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	log, err := Open(path)
	require.NoError(t, err)
	defer log.Close()

	ctx := context.Background()
	require.NoError(t, log.Record(ctx, "meeting notes", 3, 1000))
	require.NoError(t, log.Record(ctx, "meeting notes", 1, 2000))
	require.NoError(t, log.Record(ctx, "roadmap", 5, 3000))

	entries, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "roadmap", entries[0].Query)

	top, err := log.TopQueries(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "meeting notes", top[0].Query)
	require.Equal(t, 2, top[0].Calls)
	require.Equal(t, 4, top[0].TotalHits)
}

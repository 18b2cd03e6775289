package generator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-wcet-smt/pkg/cfg"
)

func batchTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0755))
	writeInput(t, root, "a.wcet", diamondInput)
	writeInput(t, root, "a.matching", "(%C) 40\n")
	writeInput(t, filepath.Join(root, "nested"), "b.wcet", diamondInput)
	writeInput(t, root, "broken.wcet", "no separator here")
	return root
}

func itemsByInput(s *BatchSummary) map[string]BatchItem {
	out := make(map[string]BatchItem)
	for _, it := range s.Items {
		out[it.Input] = it
	}
	return out
}

func TestBatch(t *testing.T) {
	root := batchTree(t)
	g := New(Options{}, nil)
	ctx := context.Background()

	summary, err := g.Batch(ctx, root, BatchOptions{Jobs: 4})
	require.NoError(t, err)
	require.Len(t, summary.Items, 3)

	generated, skipped, failed := summary.Counts()
	assert.Equal(t, 2, generated)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, 1, failed)

	items := itemsByInput(summary)
	assert.Error(t, items["broken.wcet"].Err)

	a := items["a.wcet"]
	assert.Equal(t, filepath.Join(root, "a.smt2"), a.Output)
	data, err := os.ReadFile(a.Output)
	require.NoError(t, err)
	// The companion matching file makes C the only costly block.
	assert.Contains(t, string(data), "; LONGEST_PATH = 40")

	b := items["nested/b.wcet"]
	data, err = os.ReadFile(b.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "; LONGEST_PATH = 7")

	assert.FileExists(t, filepath.Join(root, ".wcet", "cache", "batch.msgpack"))

	// Second run: everything valid is up to date, the broken input retries.
	summary, err = g.Batch(ctx, root, BatchOptions{})
	require.NoError(t, err)
	generated, skipped, failed = summary.Counts()
	assert.Equal(t, 0, generated)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, 1, failed)
}

func TestBatch_Invalidation(t *testing.T) {
	root := batchTree(t)
	ctx := context.Background()

	_, err := New(Options{}, nil).Batch(ctx, root, BatchOptions{})
	require.NoError(t, err)

	tests := []struct {
		name   string
		change func()
		opts   Options
		want   []string
	}{
		{
			name:   "companion edited",
			change: func() { writeInput(t, root, "a.matching", "(%B) 3\n") },
			want:   []string{"a.wcet"},
		},
		{
			name:   "output removed",
			change: func() { require.NoError(t, os.Remove(filepath.Join(root, "nested", "b.smt2"))) },
			want:   []string{"nested/b.wcet"},
		},
		{
			name:   "options changed",
			change: func() {},
			opts:   Options{Encoding: cfg.EncodingDifferenceLogic},
			want:   []string{"a.wcet", "nested/b.wcet"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.change()
			summary, err := New(tt.opts, nil).Batch(ctx, root, BatchOptions{})
			require.NoError(t, err)

			var regenerated []string
			for _, it := range summary.Items {
				if !it.Skipped && it.Err == nil {
					regenerated = append(regenerated, it.Input)
				}
			}
			assert.Equal(t, tt.want, regenerated)
		})
	}
}

func TestBatch_OutputDirForceAndPrune(t *testing.T) {
	root := batchTree(t)
	out := t.TempDir()
	ctx := context.Background()
	g := New(Options{}, nil)

	_, err := g.Batch(ctx, root, BatchOptions{OutputDir: out})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "a.smt2"))
	assert.FileExists(t, filepath.Join(out, "nested", "b.smt2"))

	summary, err := g.Batch(ctx, root, BatchOptions{OutputDir: out, Force: true})
	require.NoError(t, err)
	generated, _, _ := summary.Counts()
	assert.Equal(t, 2, generated)

	require.NoError(t, os.Remove(filepath.Join(root, "nested", "b.wcet")))
	summary, err = g.Batch(ctx, root, BatchOptions{OutputDir: out})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Pruned)
}

func TestBatch_CustomInclude(t *testing.T) {
	root := batchTree(t)
	summary, err := New(Options{}, nil).Batch(context.Background(), root, BatchOptions{Include: []string{"nested/*.wcet"}})
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "nested/b.wcet", summary.Items[0].Input)
	assert.True(t, strings.HasSuffix(summary.Items[0].Output, filepath.Join("nested", "b.smt2")))
}

func TestBatch_Canceled(t *testing.T) {
	root := batchTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}, nil).Batch(ctx, root, BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

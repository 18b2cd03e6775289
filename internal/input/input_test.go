package input

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const combined = `(declare-fun b_2 () Bool)
(assert (or b_2 (not b_2)))
-------
BasicBlock bd_0: 1
A:
  Dominator = NULL
`

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstded(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		data []byte
	}{
		{"plain", []byte(combined)},
		{"gzip", gzipped(t, []byte(combined))},
		{"zstd", zstded(t, []byte(combined))},
		{"tiny", []byte("x")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := filepath.Join(dir, tc.name)
			require.NoError(t, os.WriteFile(p, tc.data, 0644))

			got, err := ReadFile(p)
			require.NoError(t, err)
			if tc.name == "tiny" {
				assert.Equal(t, "x", string(got))
				return
			}
			assert.Equal(t, combined, string(got))

			rc, err := Open(p)
			require.NoError(t, err)
			streamed, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, combined, string(streamed))
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.cfg"))
	require.Error(t, err)

	var re *ResourceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, `file "`+re.Name+`" does not exist or can not be read`, err.Error())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSplit(t *testing.T) {
	c := Split(combined)
	assert.Equal(t, "(declare-fun b_2 () Bool)\n(assert (or b_2 (not b_2)))\n", c.Header)
	assert.Equal(t, "\nBasicBlock bd_0: 1\nA:\n  Dominator = NULL\n", c.Graph)

	c = Split("a\n-------\nb\n-------\nc")
	assert.Equal(t, "a\n-------\nb\n", c.Header)
	assert.Equal(t, "\nc", c.Graph)

	c = Split("BasicBlock bd_0: 1")
	assert.Empty(t, c.Header)
	assert.Equal(t, "BasicBlock bd_0: 1", c.Graph)
}

func TestReadCombined(t *testing.T) {
	p := filepath.Join(t.TempDir(), "in.txt.gz")
	require.NoError(t, os.WriteFile(p, gzipped(t, []byte(combined)), 0644))

	c, raw, err := ReadCombined(p)
	require.NoError(t, err)
	assert.Equal(t, combined, string(raw))
	assert.Contains(t, c.Header, "(assert")
	assert.Contains(t, c.Graph, "BasicBlock")
}

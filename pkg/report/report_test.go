package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-wcet-smt/pkg/cfg"
	"github.com/l3aro/go-wcet-smt/pkg/smt"
)

const diamond = `BasicBlock bd_0: 1
A:
  Dominator = NULL
  br i1 %cond, label %B, label %C
BasicBlock b_2: 2
B:
  Dominator = bd_0
  br label %D
BasicBlock b_3: 5
C:
  Dominator = bd_0
  br label %D
BasicBlock bd_1: 1
D:
  Dominator = bd_0
  ret void
`

func buildReport(t *testing.T) *Report {
	t.Helper()
	g, err := cfg.Parse(diamond)
	require.NoError(t, err)
	_, err = g.AddDominatorCuts()
	require.NoError(t, err)
	stats, err := g.Emit(smt.NewEnvironment(), cfg.EncodingAssertSoft, cfg.EmitOptions{})
	require.NoError(t, err)

	r, err := Build(g)
	require.NoError(t, err)
	return r.WithInput("diamond.cfg", []byte(diamond)).WithStats(stats)
}

func TestBuild(t *testing.T) {
	r := buildReport(t)

	assert.Equal(t, "diamond.cfg", r.Input)
	assert.Equal(t, Digest([]byte(diamond)), r.Digest)
	assert.Len(t, r.Digest, 64)
	assert.Equal(t, "assert-soft", r.Encoding)
	assert.Equal(t, 4, r.Nodes)
	assert.Equal(t, 4, r.Edges)
	assert.Equal(t, "A", r.Start)
	assert.Equal(t, "D", r.End)
	assert.Equal(t, int64(7), r.LongestPath)
	assert.Equal(t, []string{"A", "C", "D"}, r.Path)
	assert.Equal(t, "2", r.Paths)
	assert.Equal(t, 1, r.PathDigits)
	assert.Equal(t, []CutEntry{{Var: "cut_0_1", Head: "A", Tail: "D", Cost: 7}}, r.Cuts)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"msgpack", FormatMsgpack, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteRead(t *testing.T) {
	want := buildReport(t)
	for _, f := range []Format{FormatJSON, FormatYAML, FormatMsgpack} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, want.Write(&buf, f))
			got, err := Read(&buf, f)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestWriteText(t *testing.T) {
	r := buildReport(t)
	r.Paths = "123456789012"
	r.PathDigits = 12

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatText))
	out := buf.String()

	assert.Contains(t, out, "=== WCET report: diamond.cfg ===")
	assert.Contains(t, out, "Encoding: assert-soft")
	assert.Contains(t, out, "Blocks: 4, edges: 4")
	assert.Contains(t, out, "A -> C -> D")
	assert.Contains(t, out, "Paths: 123,456,789,012 (12 digits)")
	assert.Contains(t, out, "cut_0_1  A -> D  7")
}

func TestRead_TextUnsupported(t *testing.T) {
	_, err := Read(&bytes.Buffer{}, FormatText)
	assert.Error(t, err)
}

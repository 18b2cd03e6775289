package generator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-wcet-smt/internal/input"
	"github.com/l3aro/go-wcet-smt/pkg/cfg"
	"github.com/l3aro/go-wcet-smt/pkg/smt"
)

const diamondInput = `(declare-fun bs_0 () Bool)
(declare-fun b_2 () Bool)
(declare-fun b_3 () Bool)
(declare-fun bs_1 () Bool)
(assert (and bs_0

  (= b_2 (not b_3))))
-------
BasicBlock bd_0: 1
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

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestRun_Default(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "diamond.wcet", diamondInput)

	res, err := New(Options{Timeout: 30}, nil).Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []byte(diamondInput), res.Raw)
	assert.Equal(t, 1, res.DominatorCuts)
	assert.Equal(t, 0, res.SemanticCuts)
	assert.Equal(t, int64(7), res.Stats.LongestPath)
	assert.Equal(t, "2", res.Stats.Paths.String())

	out := res.Env.String()
	assert.True(t, strings.HasPrefix(out, "(set-option :timeout 30.0)\n(declare-fun bs_0 () Bool)\n"))
	assert.Contains(t, out, "(assert (and bs_0\n  (= b_2 (not b_3))))\n")
	assert.Contains(t, out, "(assert (<= cut_0_1 7))")
	assert.Contains(t, out, "(maximize cost :local-lb 0 :local-ub 7)")
	assert.Contains(t, out, ";(get-model)")
	assert.True(t, strings.HasSuffix(out, "; LONGEST_PATH = 7\n"))
}

func TestRun_Options(t *testing.T) {
	dir := t.TempDir()
	path := writeInput(t, dir, "diamond.wcet", diamondInput)
	matching := writeInput(t, dir, "diamond.matching", "(%B) 10\n")
	cuts := writeInput(t, dir, "diamond.cuts", "%A,%B\n#\n%A,%D\n")

	opts := Options{
		Encoding:         cfg.EncodingDifferenceLogic,
		EdgeImpliesNodes: true,
		ProduceModels:    true,
		MatchingFile:     matching,
		CutsFile:         cuts,
		LabelMapFile:     filepath.Join(dir, "out", "labels.csv"),
		LongestPathFile:  filepath.Join(dir, "out", "longest.txt"),
		CutListFile:      filepath.Join(dir, "out", "cuts.txt"),
	}
	res, err := New(opts, nil).Run(context.Background(), path)
	require.NoError(t, err)

	// Matching replaces every cost: only B costs anything now.
	assert.Equal(t, int64(10), res.Stats.LongestPath)
	assert.Equal(t, 1, res.SemanticCuts)
	assert.Equal(t, 2, res.Graph.NumCuts())

	out := res.Env.String()
	assert.Contains(t, out, "(set-option :produce-models true)")
	assert.Contains(t, out, "\n(get-model)\n")
	assert.Contains(t, out, "; ENCODING = 2")

	labels, err := os.ReadFile(opts.LabelMapFile)
	require.NoError(t, err)
	assert.Equal(t, "bd_0,A\nbd_1,D\nb_2,B\nb_3,C\n", string(labels))

	longest, err := os.ReadFile(opts.LongestPathFile)
	require.NoError(t, err)
	assert.Equal(t, "(A, B)\n(B, D)\n", string(longest))

	list, err := os.ReadFile(opts.CutListFile)
	require.NoError(t, err)
	assert.Equal(t, "cut_0_1 10\ncut_0_2 10\n", string(list))
}

func TestRun_NoSummaries(t *testing.T) {
	path := writeInput(t, t.TempDir(), "diamond.wcet", diamondInput)

	res, err := New(Options{NoSummaries: true, RecursiveCuts: true}, nil).Run(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, res.Graph.NumCuts())
	assert.NotContains(t, res.Env.String(), "cut_")
	assert.Contains(t, res.Env.String(), "; NB_CUTS = 0")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.wcet", diamondInput)

	t.Run("missing input", func(t *testing.T) {
		_, err := New(Options{}, nil).Run(context.Background(), filepath.Join(dir, "nope.wcet"))
		var re *input.ResourceError
		assert.True(t, errors.As(err, &re))
	})

	t.Run("missing matching file", func(t *testing.T) {
		_, err := New(Options{MatchingFile: filepath.Join(dir, "nope.matching")}, nil).Run(context.Background(), good)
		var re *input.ResourceError
		assert.True(t, errors.As(err, &re))
	})

	t.Run("header without assert", func(t *testing.T) {
		p := writeInput(t, dir, "noassert.wcet", "(declare-fun x () Bool)\n-------\nBasicBlock bd_0: 1\n")
		_, err := New(Options{}, nil).Run(context.Background(), p)
		assert.ErrorIs(t, err, smt.ErrUnsupportedHeader)
	})

	t.Run("malformed graph", func(t *testing.T) {
		p := writeInput(t, dir, "bad.wcet", "(assert true)\n-------\nBasicBlock bd_0: 1\nA:\n  Dominator = NULL\n")
		_, err := New(Options{}, nil).Run(context.Background(), p)
		var pe *cfg.ParseError
		assert.True(t, errors.As(err, &pe))
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(Options{}, nil).Run(ctx, good)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteProblem(t *testing.T) {
	env := smt.NewEnvironment()
	env.AddDeclaration("(declare-fun x () Int)")

	var buf bytes.Buffer
	require.NoError(t, WriteProblem(env, "", &buf))
	assert.Equal(t, env.String(), buf.String())

	p := filepath.Join(t.TempDir(), "sub", "out.smt2")
	require.NoError(t, WriteProblem(env, p, nil))
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, env.String(), string(data))
}

package cfg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A(1) -> B(2), A -> C(5), B, C -> D(1); A is bd_0, D is bd_1.
const diamondCFG = `BasicBlock bd_0: 1
A:
  Dominator = NULL
  br i1 %cond, label %B, label %C
BasicBlock b_2: 2
; <label>:B                                       ; preds = %A
  Dominator = bd_0
  br label %D
BasicBlock b_3: 5
; <label>:C                                       ; preds = %A
  Dominator = bd_0
  br label %D
BasicBlock bd_1: 1
D:
  Dominator = bd_0
  ret void
`

const chainCFG = `BasicBlock bd_0: 1
entry:
  Dominator = NULL
  br label %b2
BasicBlock b_2: 2
b2:
  Dominator = bd_0
  br label %b3
BasicBlock b_3: 3
b3:
  Dominator = b_2
  br label %exit
BasicBlock bd_1: 4
exit:
  Dominator = b_3
  ret void
`

const cyclicCFG = `BasicBlock bd_0: 1
entry:
  Dominator = NULL
  br label %head
BasicBlock b_2: 1
head:
  Dominator = bd_0
  br i1 %x, label %body, label %exit
BasicBlock b_3: 1
body:
  Dominator = b_2
  br label %head
BasicBlock bd_1: 1
exit:
  Dominator = b_2
  ret void
`

// diamondCFG with an extra dead end A -> trap.
const deadEndCFG = `BasicBlock bd_0: 1
A:
  Dominator = NULL
  br i1 %cond, label %B, label %C
BasicBlock b_2: 2
B:
  Dominator = bd_0
  br i1 %t, label %D, label %trap
BasicBlock b_3: 5
C:
  Dominator = bd_0
  br label %D
BasicBlock b_4: 100
trap:
  Dominator = b_2
  unreachable
BasicBlock bd_1: 1
D:
  Dominator = bd_0
  ret void
`

func mustParse(t *testing.T, text string) *Graph {
	t.Helper()
	g, err := Parse(text)
	require.NoError(t, err)
	return g
}

func TestParse_Diamond(t *testing.T) {
	g := mustParse(t, diamondCFG)

	assert.Equal(t, 4, g.NumNodes())
	assert.Equal(t, 4, g.NumEdges())
	assert.Equal(t, 0, g.Start())
	assert.Equal(t, 1, g.End())
	assert.Equal(t, []int{0, 1, 2, 3}, g.NodeUIDs())
	assert.Equal(t, []EdgeID{{0, 2}, {0, 3}, {2, 1}, {3, 1}}, g.EdgeIDs())

	a, ok := g.Node(0)
	require.True(t, ok)
	assert.Equal(t, "A", a.Label)
	assert.Equal(t, "bs_0", a.BlockVar)
	assert.Equal(t, int64(1), a.Cost)
	assert.Equal(t, NoDominator, a.Dominator)
	assert.Equal(t, []int{2, 3}, a.Succs)
	assert.True(t, a.IsStart())

	d, _ := g.Node(1)
	assert.Equal(t, "D", d.Label)
	assert.Equal(t, "bs_1", d.BlockVar)
	assert.Equal(t, 0, d.Dominator)
	assert.Equal(t, []int{2, 3}, d.Preds)

	b, _ := g.Node(2)
	assert.Equal(t, "B", b.Label)
	assert.Equal(t, "b_2", b.BlockVar)

	uid, ok := g.UID("C")
	require.True(t, ok)
	assert.Equal(t, 3, uid)

	e, ok := g.Edge(0, 3)
	require.True(t, ok)
	assert.Equal(t, int64(0), e.Cost)
	assert.Equal(t, "t_0_3", e.Selector().Name)
	assert.Equal(t, "c_0_3", e.CostVar().Name)
}

func TestParse_StartRewrite(t *testing.T) {
	text := strings.NewReplacer("bd_0", "bd_7", "bd_1", "bd_9").Replace(diamondCFG)
	g := mustParse(t, text)

	start, _ := g.Node(7)
	assert.Equal(t, "bs_7", start.BlockVar)
	end, _ := g.Node(9)
	assert.Equal(t, "bd_9", end.BlockVar)
	assert.Equal(t, 7, g.Start())
	assert.Equal(t, 9, g.End())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "single dominant block",
			text:    strings.ReplaceAll(diamondCFG, "bd_1", "b_1"),
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "three dominant blocks",
			text:    strings.ReplaceAll(diamondCFG, "b_2", "bd_2"),
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "unknown branch target",
			text:    strings.Replace(diamondCFG, "label %D", "label %Z", 1),
			wantErr: ErrUnknownLabel,
		},
		{
			name:    "unknown dominator",
			text:    strings.Replace(diamondCFG, "Dominator = bd_0", "Dominator = b_42", 1),
			wantErr: ErrUnknownBlock,
		},
		{
			name:    "bad cost",
			text:    strings.Replace(diamondCFG, "b_2: 2", "b_2: two", 1),
			wantErr: ErrMalformedRecord,
		},
		{
			name:    "missing dominator",
			text:    strings.Replace(diamondCFG, "  Dominator = bd_0\n  br label %D", "  br label %D", 1),
			wantErr: ErrMalformedRecord,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestLongestPath_Diamond(t *testing.T) {
	g := mustParse(t, diamondCFG)

	r, err := g.LongestPath(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.Cost)
	assert.Equal(t, []int{0, 3, 1}, r.Path)
	assert.Equal(t, []int{0, 1, 2, 3}, r.Nodes)
	assert.Equal(t, []EdgeID{{0, 2}, {0, 3}, {2, 1}, {3, 1}}, r.Edges)

	n, err := g.CountPaths(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "2", n.String())
}

func TestLongestPath_EdgeCosts(t *testing.T) {
	g := mustParse(t, diamondCFG)
	e, _ := g.Edge(2, 1)
	e.Cost = 10

	r, err := g.LongestPath(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(14), r.Cost)
	assert.Equal(t, []int{0, 2, 1}, r.Path)
}

func TestLongestPath_Chain(t *testing.T) {
	g := mustParse(t, chainCFG)

	r, err := g.LongestPath(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Cost)
	assert.Equal(t, []int{0, 2, 3, 1}, r.Path)

	n, err := g.CountPaths(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "1", n.String())
}

func TestLongestPath_DeadEndPruned(t *testing.T) {
	g := mustParse(t, deadEndCFG)

	r, err := g.LongestPath(0, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), r.Cost)
	assert.NotContains(t, r.Nodes, 4)
	assert.NotContains(t, r.Edges, EdgeID{2, 4})

	n, err := g.CountPaths(0, 1)
	require.NoError(t, err)
	assert.Equal(t, "2", n.String())
}

func TestLongestPath_Cycle(t *testing.T) {
	g := mustParse(t, cyclicCFG)

	_, err := g.LongestPath(0, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidGraph)
	var ie *InvariantError
	assert.ErrorAs(t, err, &ie)

	_, err = g.CountPaths(0, 1)
	assert.ErrorIs(t, err, ErrInvalidGraph)
}

func TestLongestPath_Preconditions(t *testing.T) {
	g := mustParse(t, diamondCFG)

	tests := []struct {
		name     string
		src, dst int
	}{
		{"head equals tail", 2, 2},
		{"not a dominator", 2, 1},
		{"unknown node", 0, 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.LongestPath(tt.src, tt.dst)
			assert.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}

func TestLongestPath_BoundsEveryPath(t *testing.T) {
	g := mustParse(t, deadEndCFG)
	r, err := g.LongestPath(0, 1)
	require.NoError(t, err)

	for _, p := range allPaths(g, 0, 1) {
		assert.LessOrEqual(t, pathCost(g, p), r.Cost, "path %v", p)
	}
	assert.Equal(t, r.Cost, pathCost(g, r.Path))
}

func TestApplyMatching(t *testing.T) {
	t.Run("node cost", func(t *testing.T) {
		g := mustParse(t, diamondCFG)
		require.NoError(t, g.ApplyMatching(strings.NewReader("(B) 10\n")))

		for label, want := range map[string]int64{"A": 0, "B": 10, "C": 0, "D": 0} {
			uid, _ := g.UID(label)
			n, _ := g.Node(uid)
			assert.Equal(t, want, n.Cost, label)
		}
		r, err := g.LongestPath(0, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(10), r.Cost)
		assert.Equal(t, []int{0, 2, 1}, r.Path)
	})

	t.Run("edge cost and comma form", func(t *testing.T) {
		g := mustParse(t, diamondCFG)
		input := "(%A, %C),4\n\n(%C,),5\n"
		require.NoError(t, g.ApplyMatching(strings.NewReader(input)))

		e, _ := g.Edge(0, 3)
		assert.Equal(t, int64(4), e.Cost)
		r, err := g.LongestPath(0, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(9), r.Cost)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name    string
			input   string
			wantErr error
		}{
			{"unknown label", "(Z) 3\n", ErrUnknownLabel},
			{"missing edge", "(B, C) 3\n", ErrMalformedRecord},
			{"bad cost", "(B) x\n", ErrMalformedRecord},
			{"no parens", "B 3\n", ErrMalformedRecord},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				g := mustParse(t, diamondCFG)
				err := g.ApplyMatching(strings.NewReader(tt.input))
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})
}

// allPaths enumerates every src -> dst path by depth-first search.
func allPaths(g *Graph, src, dst int) [][]int {
	var out [][]int
	var walk func(cur int, path []int)
	walk = func(cur int, path []int) {
		path = append(path, cur)
		if cur == dst {
			out = append(out, append([]int(nil), path...))
			return
		}
		n, _ := g.Node(cur)
		for _, s := range n.Succs {
			walk(s, path)
		}
	}
	walk(src, nil)
	return out
}

func pathCost(g *Graph, path []int) int64 {
	var cost int64
	for i, uid := range path {
		n, _ := g.Node(uid)
		cost += n.Cost
		if i > 0 {
			e, _ := g.Edge(path[i-1], uid)
			cost += e.Cost
		}
	}
	return cost
}

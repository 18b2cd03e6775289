package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-wcet-smt/internal/healthcheck"
	"github.com/l3aro/go-wcet-smt/pkg/report"
)

const diamondInput = `(declare-fun b_2 () Bool)
(declare-fun b_3 () Bool)
(assert (= b_2 (not b_3)))
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

// run executes the root command with a fresh config file and returns
// stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("timeout: 15\n"), 0644))

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestGenerateCommand(t *testing.T) {
	in := writeFile(t, "diamond.wcet", diamondInput)
	reportPath := filepath.Join(t.TempDir(), "report.json")

	stdout, stderr, err := run(t, "generate", in, "--encoding", "1", "--report", reportPath, "--format", "json")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout, "(set-option :timeout 15.0)\n"))
	assert.Contains(t, stdout, "(declare-fun cost () Real)")
	assert.Contains(t, stdout, "; ENCODING = 1")
	assert.Contains(t, stderr, "generated problem")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var r report.Report
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, "assert-soft", r.Encoding)
	assert.Equal(t, int64(7), r.LongestPath)
	assert.Equal(t, []string{"A", "C", "D"}, r.Path)
	assert.Equal(t, report.Digest([]byte(diamondInput)), r.Digest)
}

func TestInspectCommand(t *testing.T) {
	in := writeFile(t, "diamond.wcet", diamondInput)

	stdout, _, err := run(t, "inspect", in, "--format", "yaml")
	require.NoError(t, err)

	var r report.Report
	require.NoError(t, yaml.Unmarshal([]byte(stdout), &r))
	assert.Equal(t, 4, r.Nodes)
	assert.Equal(t, "2", r.Paths)
	require.Len(t, r.Cuts, 1)
	assert.Equal(t, "cut_0_1", r.Cuts[0].Var)
}

func TestDoctorCommand(t *testing.T) {
	looped := strings.Replace(diamondInput, "B:\n  Dominator = bd_0\n  br label %D",
		"B:\n  Dominator = bd_0\n  br i1 %x, label %D, label %C", 1)
	looped = strings.Replace(looped, "C:\n  Dominator = bd_0\n  br label %D",
		"C:\n  Dominator = bd_0\n  br i1 %y, label %D, label %B", 1)
	in := writeFile(t, "loop.wcet", looped)

	stdout, _, err := run(t, "doctor", in, "--format", "json")
	require.Error(t, err)

	var result healthcheck.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.False(t, result.Healthy())
	assert.Equal(t, 4, result.Nodes)
}

func TestGenerateMissingInput(t *testing.T) {
	_, _, err := run(t, "generate", filepath.Join(t.TempDir(), "missing.wcet"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist or can not be read")
}

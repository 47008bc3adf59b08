package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestBuildPlantUML(t *testing.T) {
	stdout, stderr, err := execute(t, "build", "--format", "plantuml", "--strategy", "subsystems")
	require.NoError(t, err)
	assert.Contains(t, stdout, "@startuml system_2\n")
	assert.Contains(t, stdout, "[*] --> flow0__idle_0__rising0__flow1__idle_1__rising1__flow2__idle_2__rising2\n")
	assert.Contains(t, stderr, "built system")
}

func TestBuildEasyRead(t *testing.T) {
	stdout, _, err := execute(t, "build", "--urgent=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "HybridAutomaton( name=system_8\n")
	assert.Contains(t, stdout, "location=flow0,flow1,flow2,idle_0,idle_1,idle_2,rising0,rising1,rising2\n")
	assert.Contains(t, stdout, "delta")
}

func TestBuildFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hybridc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  format: json
  level: debug
build:
  strategy: by-type
  format: yaml
`), 0o600))

	stdout, stderr, err := execute(t, "--config", path, "build")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: system_2\n")
	assert.Contains(t, stderr, `"msg":"built system"`)
	assert.Contains(t, stderr, `"msg":"composed automaton"`)
}

func TestBuildRejectsUnknownStrategy(t *testing.T) {
	_, _, err := execute(t, "build", "--strategy", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build.strategy")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "hybridc dev\n", stdout)

	stdout, _, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

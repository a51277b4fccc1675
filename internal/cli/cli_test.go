package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hammal/lti/internal/netlist"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "ltictl", cmd.Use)
	for _, cmdName := range []string{"compose", "validate"} {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "json", formatFlag.DefValue)
}

func TestComposeGolden(t *testing.T) {
	out, err := execute(t, "compose", filepath.Join("testdata", "loop.yaml"))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "compose_loop_json", []byte(out))
}

func TestComposeYAML(t *testing.T) {
	out, err := execute(t, "compose", "--format", "yaml", filepath.Join("testdata", "loop.yaml"))
	require.NoError(t, err)

	var r netlist.Realization
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, "loop", r.Name)
	assert.Equal(t, [][]float64{{-2}}, r.A)
	assert.Equal(t, [][]float64{{1}}, r.B)
}

func TestComposeConfigAndPlot(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ltictl.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format = \"yaml\"\nlog_level = \"off\"\n"), 0o644))
	plotPath := filepath.Join(dir, "loop.png")

	out, err := execute(t, "--config", cfgPath, "compose", "--plot", plotPath, filepath.Join("testdata", "loop.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "name: loop")
	_, err = os.Stat(plotPath)
	assert.NoError(t, err)

	// Flags win over the file.
	out, err = execute(t, "--config", cfgPath, "--format", "json", "compose", filepath.Join("testdata", "loop.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "loop"`)
}

func TestComposeFailures(t *testing.T) {
	_, err := execute(t, "compose", filepath.Join("testdata", "illposed.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "ill-posed")

	_, err = execute(t, "compose", filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "--format", "xml", "compose", filepath.Join("testdata", "loop.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join("testdata", "loop.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "netlist valid: 2 systems, 1 compositions, output \"loop\"\n", out)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("systems: {a: {d: [[1]]}}\noutput: b\n"), 0o644))
	_, err = execute(t, "validate", bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_StateDirFromEnv(t *testing.T) {
	root := t.TempDir()
	wanted := filepath.Join(root, "wanted")
	t.Chdir(root)
	t.Setenv("QTS_STATE_DIR", wanted)
	t.Setenv("QTS_HOSTNAME", "localhost")

	prevViper, prevApp, prevEphemeral := v, cli, ephemeral
	t.Cleanup(func() { v, cli, ephemeral = prevViper, prevApp, prevEphemeral })
	v = viper.New()
	ephemeral = false

	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	require.NoError(t, setup(cmd, nil))

	assert.FileExists(t, filepath.Join(wanted, "config.yaml"))
	assert.DirExists(t, filepath.Join(wanted, "requests"))
	assert.NoDirExists(t, filepath.Join(root, ".qts"))
	assert.Equal(t, wanted, cli.cfg.StateDir)
	assert.Equal(t, filepath.Join(wanted, "state.yaml"), cli.cfg.StateFile())
}

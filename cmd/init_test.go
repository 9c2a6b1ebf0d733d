package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalcmd "github.com/geoapi-labs/ogcd/internal/cmd"
	"github.com/geoapi-labs/ogcd/internal/flags"
)

func TestInitCmd_Execute(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ".ogcd.toml")

	previousConfigFile := flags.ConfigFile
	t.Cleanup(func() { flags.ConfigFile = previousConfigFile })
	flags.ConfigFile = configPath

	output := &bytes.Buffer{}
	c, err := NewInitCmd(&internalcmd.BaseCmd{})
	require.NoError(t, err)
	c.SetOut(output)
	c.SetArgs(nil)

	require.NoError(t, c.Execute())
	assert.Contains(t, output.String(), "✓ Config file created")
	assert.FileExists(t, configPath)

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "servers")

	// Re-running must not clobber the existing file.
	err = c.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

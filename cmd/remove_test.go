package cmd

import (
	"bytes"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalcmd "github.com/geoapi-labs/ogcd/internal/cmd"
	"github.com/geoapi-labs/ogcd/internal/config"
)

func TestRemoveCmd_Execute(t *testing.T) {
	initialConfig := `[[servers]]
name = "pygeoapi-demo"
url = "https://demo.pygeoapi.io/master"

[[servers]]
name = "maps"
url = "https://maps.example.com/ogc"
`

	tests := []struct {
		name           string
		args           []string
		expectedNames  []string
		expectedOutput string
		expectedError  string
	}{
		{
			name:           "remove existing server",
			args:           []string{"pygeoapi-demo"},
			expectedNames:  []string{"maps"},
			expectedOutput: "✓ Removed server 'pygeoapi-demo'",
		},
		{
			name:          "remove unknown server",
			args:          []string{"nope"},
			expectedError: "not found",
		},
		{
			name:          "empty server name",
			args:          []string{"  "},
			expectedError: "server name is required and cannot be empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configPath := withTempConfig(t, initialConfig)

			output := &bytes.Buffer{}
			c, err := NewRemoveCmd(&internalcmd.BaseCmd{})
			require.NoError(t, err)
			c.SetOut(output)
			c.SetErr(output)
			c.SetArgs(tc.args)

			err = c.Execute()

			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, output.String(), tc.expectedOutput)

			var parsed config.Config
			_, err = toml.DecodeFile(configPath, &parsed)
			require.NoError(t, err)

			var names []string
			for _, entry := range parsed.Servers {
				names = append(names, entry.Name)
			}
			assert.Equal(t, tc.expectedNames, names)
		})
	}
}

func TestListCmd_Execute(t *testing.T) {
	t.Run("configured servers", func(t *testing.T) {
		withTempConfig(t, `[[servers]]
name = "pygeoapi-demo"
url = "https://demo.pygeoapi.io/master"
refresh = "15m"
`)

		output := &bytes.Buffer{}
		c, err := NewListCmd(&internalcmd.BaseCmd{})
		require.NoError(t, err)
		c.SetOut(output)
		c.SetArgs(nil)

		require.NoError(t, c.Execute())
		assert.Contains(t, output.String(), "pygeoapi-demo")
		assert.Contains(t, output.String(), "https://demo.pygeoapi.io/master")
		assert.Contains(t, output.String(), "refresh: 15m")
	})

	t.Run("empty project", func(t *testing.T) {
		withTempConfig(t, "servers = []\n")

		output := &bytes.Buffer{}
		c, err := NewListCmd(&internalcmd.BaseCmd{})
		require.NoError(t, err)
		c.SetOut(output)
		c.SetArgs(nil)

		require.NoError(t, c.Execute())
		assert.Contains(t, output.String(), "No servers configured")
	})
}

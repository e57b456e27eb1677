package configloader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Server struct {
		Port int `koanf:"port"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func (c *testConfig) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("port is not configured")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_Load(t *testing.T) {
	testCases := []struct {
		name        string
		yaml        string
		env         map[string]string
		expectPort  int
		expectLevel string
		expectError bool
	}{
		{
			name:        "Success - values from yaml",
			yaml:        "server:\n  port: 8080\nlog:\n  level: debug\n",
			expectPort:  8080,
			expectLevel: "debug",
		},
		{
			name:        "Success - env overrides yaml",
			yaml:        "server:\n  port: 8080\nlog:\n  level: debug\n",
			env:         map[string]string{"TESTSVC_SERVER_PORT": "9090"},
			expectPort:  9090,
			expectLevel: "debug",
		},
		{
			name:        "Error - validation fails",
			yaml:        "log:\n  level: info\n",
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			path := writeConfig(t, tc.yaml)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			// when
			cfg, err := Load[*testConfig]("testsvc", path)
			// then
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectPort, cfg.Server.Port)
			assert.Equal(t, tc.expectLevel, cfg.Log.Level)
		})
	}
}

func Test_KeyTransformer(t *testing.T) {
	transform := KeyTransformer("PRODUCT_")
	assert.Equal(t, "database.url", transform("PRODUCT_DATABASE_URL"))
	assert.Equal(t, "log.level", transform("PRODUCT_LOG_LEVEL"))
}

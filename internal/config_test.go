package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/starford/blockdoc/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.AuthEnabled())
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, AuthModeDisabled, cfg.Mode)
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.AuthEnabled())
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is empty")
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	assert.Error(t, cfg.Validate())
}

func TestEditorConfig(t *testing.T) {
	assert.NoError(t, (&EditorConfig{}).Validate())
	assert.Error(t, (&EditorConfig{MaxBlocks: -1}).Validate())
	assert.Error(t, (&EditorConfig{EventThrottle: -time.Second}).Validate())
}

func TestFullConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Auth.Mode = "token"
	assert.Error(t, cfg.Validate(), "auth validation must run")

	cfg = NewDefaultConfig()
	cfg.Storage.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = NewDefaultConfig()
	cfg.App.HTTP.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("BLOCKDOC_TEST_TOKEN", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  log_level: debug
  http:
    port: 9090
storage:
  path: /tmp/docs
sqlite:
  path: /tmp/docs.db
auth:
  mode: token
  token: ${BLOCKDOC_TEST_TOKEN}
editor:
  sanitize_html: false
  max_blocks: 10
  event_throttle: 500ms
`), 0o644))

	cfg := NewDefaultConfig()
	require.NoError(t, pkgconfig.Load(path, cfg))

	assert.Equal(t, ":9090", cfg.App.HTTP.Address())
	assert.Equal(t, "/tmp/docs", cfg.Storage.Path)
	assert.Equal(t, "from-env", cfg.Auth.Token)
	assert.True(t, cfg.Auth.AuthEnabled())
	assert.False(t, cfg.Editor.SanitizeHTML)
	assert.Equal(t, 10, cfg.Editor.MaxBlocks)
	assert.Equal(t, 500*time.Millisecond, cfg.Editor.EventThrottle)
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  mode: token\n"), 0o644))

	err := pkgconfig.Load(path, NewDefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, NewDefaultConfig(), cfg)

	cfg.Auth.Mode = AuthModeToken
	_, err = pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg)
	assert.Error(t, err, "defaults are still validated")
}

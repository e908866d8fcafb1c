package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHCL(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "test.hcl")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeHCL(t, `
target "dev" {
  url          = "https://icn.example.com:9443/navigator/"
  username     = "p8admin"
  password_env = "ICN_PASSWORD"
  working_dir  = "/builds/audit"
  plugin_dir   = "/opt/icn/plugins/"
  timeout      = "45s"
}

service "icn" "local" {
  port = 9080
  env = {
    USERS = "p8admin:secret"
  }
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 1)
	tgt := cfg.Targets[0]
	assert.Equal(t, "dev", tgt.Name)
	assert.Equal(t, "https://icn.example.com:9443/navigator/", tgt.URL)
	assert.Equal(t, "p8admin", tgt.Username)
	assert.Equal(t, "ICN_PASSWORD", tgt.PasswordEnv)
	assert.Equal(t, "/builds/audit", tgt.Dir())
	assert.Equal(t, "/opt/icn/plugins/", tgt.PluginDir)
	timeout, err := tgt.RequestTimeout()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, timeout)

	require.Len(t, cfg.Services, 1)
	svc := cfg.Services[0]
	assert.Equal(t, "icn", svc.Type)
	assert.Equal(t, "local", svc.Name)
	assert.Equal(t, 9080, svc.Port)
	assert.Equal(t, map[string]string{"USERS": "p8admin:secret"}, svc.Env)
}

func TestLoad_OptionalFields(t *testing.T) {
	path := writeHCL(t, `
target "dev" {
  url      = "http://icn/navigator"
  username = "admin"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Targets, 1)
	tgt := cfg.Targets[0]
	assert.Equal(t, "", tgt.Password)
	assert.Equal(t, ".", tgt.Dir())
	timeout, err := tgt.RequestTimeout()
	require.NoError(t, err)
	assert.Zero(t, timeout)
	assert.Empty(t, cfg.Services)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoad_InvalidHCLSyntax(t *testing.T) {
	path := writeHCL(t, `this is not valid HCL {{{{`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_InvalidHCLSchema(t *testing.T) {
	path := writeHCL(t, `
target "dev" {
  url        = "http://icn"
  username   = "admin"
  bogusfield = "nope"
}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding config")
}

func TestLoad_MissingRequiredAttribute(t *testing.T) {
	path := writeHCL(t, `
target "dev" {
  username = "admin"
}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding config")
}

func TestLoad_DuplicateTarget(t *testing.T) {
	path := writeHCL(t, `
target "dev" {
  url      = "http://a"
  username = "admin"
}
target "dev" {
  url      = "http://b"
  username = "admin"
}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate target "dev"`)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	path := writeHCL(t, `
target "dev" {
  url      = "http://a"
  username = "admin"
  timeout  = "soon"
}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout")
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeHCL(t, ``)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Targets)
	assert.Empty(t, cfg.Services)
}

func TestConfig_Target(t *testing.T) {
	cfg := &Config{Targets: []Target{{Name: "dev"}, {Name: "prod"}}}
	tgt, err := cfg.Target("prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", tgt.Name)

	_, err = cfg.Target("qa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target")
}

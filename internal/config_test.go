/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadConfigYAMLWithDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".cfg", `
secret-key: `+secret+`
presence-window: 2m
identity:
  login-url: https://broker.example/login
  assertion-secret: shh
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, uint16(DefaultHTTPServerPort), cfg.HTTPServerPort)
	assert.Equal(t, 2*time.Minute, cfg.PresenceWindow)
	assert.Equal(t, DefaultStatusTTL, cfg.StatusTTL)
	assert.Equal(t, "shh", cfg.Identity.AssertionSecret)
	assert.Equal(t, filepath.Join(dir, "vaileth.db"), cfg.DBPath())
}

func TestLoadConfigAcceptsJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".cfg", `{
  "http-server-port": 9000,
  "db-name": "chat.db",
  "read-timeout": 3,
  "secret-key": "`+secret+`",
  "identity": {"login-url": "https://broker.example/login", "assertion-secret": "shh"}
}`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, uint16(9000), cfg.HTTPServerPort)
	assert.Equal(t, int64(3), cfg.ReadTimeout)
	assert.Equal(t, "chat.db", cfg.DBName)
}

func TestLoadConfigEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".cfg", `
http-server-port: 9000
secret-key: `+secret+`
identity:
  login-url: https://broker.example/login
  assertion-secret: shh
`)
	writeFile(t, dir, ".env", "VAILETH_STATUS_TTL=1h\n")
	t.Setenv("VAILETH_HTTP_PORT", "9100")
	t.Cleanup(func() { os.Unsetenv("VAILETH_STATUS_TTL") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, uint16(9100), cfg.HTTPServerPort)
	assert.Equal(t, time.Hour, cfg.StatusTTL)
}

func TestLoadConfigRejectsShortSecret(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".cfg", `
secret-key: short
identity:
  login-url: https://broker.example/login
  assertion-secret: shh
`)

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRetrieveWebTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "layouts"), 0755))
	writeFile(t, filepath.Join(dir, "layouts"), "base.html", `{{define "base"}}{{end}}`)
	writeFile(t, dir, "chat.html", `{{define "chat.html"}}{{end}}`)
	writeFile(t, dir, "404.html", `{{define "404.html"}}{{end}}`)

	mapping, err := RetrieveWebTemplates(dir)
	require.NoError(t, err)
	require.Len(t, mapping, 2)
	assert.Equal(t, []string{filepath.Join(dir, "layouts", "base.html"), filepath.Join(dir, "chat.html")}, mapping["chat.html"])
}

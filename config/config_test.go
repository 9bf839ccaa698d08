package config

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/qqcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qqcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data_folder = "/var/lib/bots"
log_level = "debug"

[[accounts]]
uin = 111
method = "password"
password = "secret"

[[accounts]]
uin = 222
method = "qrcode"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/bots", cfg.DataFolder)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, int64(111), cfg.Accounts[0].Uin)
	assert.Equal(t, "qrcode", cfg.Accounts[1].Method)
}

func TestLoadDefaultsDataFolder(t *testing.T) {
	cfg, err := Load(writeConfig(t, ``))
	require.NoError(t, err)
	assert.Equal(t, qqcore.DefaultDataFolder, cfg.DataFolder)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"non-positive uin", "[[accounts]]\nuin = 0\nmethod = \"password\"\npassword = \"x\"\n"},
		{"duplicate uin", "[[accounts]]\nuin = 1\nmethod = \"qrcode\"\n[[accounts]]\nuin = 1\nmethod = \"qrcode\"\n"},
		{"missing password", "[[accounts]]\nuin = 1\nmethod = \"password\"\n"},
		{"bad md5 hex", "[[accounts]]\nuin = 1\nmethod = \"password_md5\"\npassword_md5 = \"zz\"\n"},
		{"unknown method", "[[accounts]]\nuin = 1\nmethod = \"carrier-pigeon\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, qqcore.ErrConfiguration)
		})
	}
}

func TestLoginsOrderAndMethods(t *testing.T) {
	digest := md5.Sum([]byte("secret"))
	path := writeConfig(t, `
[[accounts]]
uin = 333
method = "password_md5"
password_md5 = "`+hex.EncodeToString(digest[:])+`"

[[accounts]]
uin = 111
method = "password"
password = "secret"

[[accounts]]
uin = 222
method = "qrcode"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	logins, err := cfg.Logins(func(uin int64, png []byte) error { return nil }, nil)
	require.NoError(t, err)
	require.Len(t, logins, 3)

	// Declaration order is preserved; the supervisor relies on it.
	assert.Equal(t, int64(333), logins[0].Uin)
	assert.Equal(t, int64(111), logins[1].Uin)
	assert.Equal(t, int64(222), logins[2].Uin)

	assert.IsType(t, qqcore.Password{}, logins[0].Method)
	assert.IsType(t, qqcore.Password{}, logins[1].Method)
	assert.IsType(t, qqcore.QRCode{}, logins[2].Method)
}

func TestLoginsQRCodeNeedsDisplay(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[[accounts]]\nuin = 1\nmethod = \"qrcode\"\n"))
	require.NoError(t, err)

	_, err = cfg.Logins(nil, nil)
	assert.ErrorIs(t, err, qqcore.ErrConfiguration)
}

func TestApplyLogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "not-a-level"}
	assert.ErrorIs(t, cfg.ApplyLogLevel(), qqcore.ErrConfiguration)

	cfg = &Config{LogLevel: ""}
	assert.NoError(t, cfg.ApplyLogLevel())
}

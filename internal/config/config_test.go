package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.MAC.DoNotChange)
	assert.Equal(t, "tshark", cfg.Tools.Tshark)
	assert.Equal(t, "ifconfig", cfg.Tools.Ifconfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"unset interface and channel", func(c *Config) {}, false},
		{"named interface", func(c *Config) { c.Interface = "wlan0mon" }, false},
		{"interface with space", func(c *Config) { c.Interface = "wlan 0" }, true},
		{"interface too long", func(c *Config) { c.Interface = "wlan0123456789abc" }, true},
		{"2.4GHz channel", func(c *Config) { c.Channel = 11 }, false},
		{"5GHz channel", func(c *Config) { c.Channel = 149 }, false},
		{"bogus channel", func(c *Config) { c.Channel = 15 }, true},
		{"negative channel", func(c *Config) { c.Channel = -3 }, true},
		{"negative deauth count", func(c *Config) { c.Attack.WPA.DeauthCount = -1 }, true},
		{"zero deauth interval", func(c *Config) { c.Attack.WPA.DeauthInterval = 0 }, true},
		{"negative deauth interval", func(c *Config) { c.Attack.WPA.DeauthInterval = -time.Second }, true},
		{"zero handshake timeout", func(c *Config) { c.Attack.WPA.HandshakeTimeout = 0 }, true},
		{"zero pixie timeout", func(c *Config) { c.Attack.WPS.PixieTimeout = 0 }, true},
		{"negative PIN timeout", func(c *Config) { c.Attack.WPS.PINTimeout = -time.Minute }, true},
		{"zero WEP timeout", func(c *Config) { c.Attack.WEP.Timeout = 0 }, true},
		{"short deauth interval", func(c *Config) { c.Attack.WPA.DeauthInterval = time.Millisecond }, false},
		{"all attacks disabled", func(c *Config) {
			c.Attack.WPADisable, c.Attack.WPSDisable, c.Attack.WEPDisable = true, true, true
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"tools": {"ifconfig": "/sbin/ifconfig", "tshark": ""},
		"wordlist": "/opt/words.txt",
		"keep_mac": true
	}`), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, LoadFile(path, cfg))

	assert.Equal(t, "/sbin/ifconfig", cfg.Tools.Ifconfig)
	assert.Equal(t, "tshark", cfg.Tools.Tshark, "empty value keeps default")
	assert.Equal(t, "/opt/words.txt", cfg.Wordlist)
	assert.True(t, cfg.MAC.DoNotChange)
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, LoadFile(filepath.Join(t.TempDir(), "nope.json"), cfg))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	assert.Error(t, LoadFile(bad, cfg))
}

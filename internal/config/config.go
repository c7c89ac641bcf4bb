package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Validate for unusable run settings.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Interface string
	Channel   int // 0 means hop / unset
	Verbose   bool
	Wordlist  string
	TempDir   string

	Scan    ScanConfig
	Attack  AttackConfig
	MAC     MACConfig
	Output  OutputConfig
	Tools   ToolNames
	Pillage bool
	BSSID   string
	ESSID   string

	// ClientsOnly skips targets without an associated station.
	ClientsOnly bool
}

type ScanConfig struct {
	Timeout time.Duration
}

type AttackConfig struct {
	WPA WPAConfig
	WPS WPSConfig
	WEP WEPConfig

	WPADisable bool
	WPSDisable bool
	WEPDisable bool
}

type WPAConfig struct {
	HandshakeTimeout time.Duration
	DeauthInterval   time.Duration
	DeauthCount      int
}

type WPSConfig struct {
	PixieDust    bool
	PixieTimeout time.Duration
	PINTimeout   time.Duration
}

type WEPConfig struct {
	IVThreshold int
	Timeout     time.Duration
}

type MACConfig struct {
	DoNotChange bool
}

type OutputConfig struct {
	ResultsDB    string
	HandshakeDir string
	SessionFile  string
	MetricsFile  string
}

// ToolNames maps each external tool role to the binary that fills it. Any
// binary honouring the same input/output contract can be substituted.
type ToolNames struct {
	Tshark   string `json:"tshark"`
	Ifconfig string `json:"ifconfig"`
	Airodump string `json:"airodump"`
	Aireplay string `json:"aireplay"`
	Aircrack string `json:"aircrack"`
	Reaver   string `json:"reaver"`
}

// Channels2GHz and Channels5GHz are the channel numbers accepted by Validate.
var Channels2GHz = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}

var Channels5GHz = []int{
	36, 40, 44, 48, 52, 56, 60, 64,
	100, 104, 108, 112, 116, 120, 124, 128, 132, 136, 140, 144,
	149, 153, 157, 161, 165,
}

func DefaultConfig() *Config {
	return &Config{
		Wordlist: "/usr/share/wordlists/rockyou.txt",
		TempDir:  os.TempDir(),
		Scan: ScanConfig{
			Timeout: 30 * time.Second,
		},
		Attack: AttackConfig{
			WPA: WPAConfig{
				HandshakeTimeout: 500 * time.Second,
				DeauthInterval:   15 * time.Second,
				DeauthCount:      5,
			},
			WPS: WPSConfig{
				PixieDust:    true,
				PixieTimeout: 300 * time.Second,
				PINTimeout:   3600 * time.Second,
			},
			WEP: WEPConfig{
				IVThreshold: 10000,
				Timeout:     600 * time.Second,
			},
		},
		Output: OutputConfig{
			ResultsDB:    "./wlfwifi.db",
			HandshakeDir: "./hs/",
			SessionFile:  ".wlfwifi-session.json",
		},
		Tools: ToolNames{
			Tshark:   "tshark",
			Ifconfig: "ifconfig",
			Airodump: "airodump-ng",
			Aireplay: "aireplay-ng",
			Aircrack: "aircrack-ng",
			Reaver:   "reaver",
		},
	}
}

// Validate checks the settings that cannot be recovered from at runtime.
func (c *Config) Validate() error {
	if c.Interface != "" {
		if len(c.Interface) > 15 || strings.ContainsAny(c.Interface, " \t\n/") {
			return fmt.Errorf("%w: interface %q is not a valid interface name", ErrInvalidConfig, c.Interface)
		}
	}
	if c.Channel != 0 && !ValidChannel(c.Channel) {
		return fmt.Errorf("%w: channel %d is not a 2.4/5 GHz channel", ErrInvalidConfig, c.Channel)
	}
	if c.Attack.WPA.DeauthCount < 0 {
		return fmt.Errorf("%w: deauth count must not be negative", ErrInvalidConfig)
	}
	for _, d := range []struct {
		flag string
		val  time.Duration
	}{
		{"hs-timeout", c.Attack.WPA.HandshakeTimeout},
		{"deauth-interval", c.Attack.WPA.DeauthInterval},
		{"pixie-timeout", c.Attack.WPS.PixieTimeout},
		{"wps-timeout", c.Attack.WPS.PINTimeout},
		{"wep-timeout", c.Attack.WEP.Timeout},
	} {
		if d.val <= 0 {
			return fmt.Errorf("%w: --%s must be positive, got %s", ErrInvalidConfig, d.flag, d.val)
		}
	}
	if c.Attack.WPADisable && c.Attack.WPSDisable && c.Attack.WEPDisable {
		return fmt.Errorf("%w: every attack kind is disabled", ErrInvalidConfig)
	}
	return nil
}

// ValidChannel reports whether ch is in the supported channel plan.
func ValidChannel(ch int) bool {
	for _, c := range Channels2GHz {
		if c == ch {
			return true
		}
	}
	for _, c := range Channels5GHz {
		if c == ch {
			return true
		}
	}
	return false
}

type fileConfig struct {
	Tools        *ToolNames `json:"tools"`
	Wordlist     string     `json:"wordlist"`
	TempDir      string     `json:"temp_dir"`
	HandshakeDir string     `json:"handshake_dir"`
	ResultsDB    string     `json:"results_db"`
	KeepMAC      *bool      `json:"keep_mac"`
}

// LoadFile overlays the JSON settings file at path onto cfg. Empty values in
// the file leave the current setting untouched.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if fc.Tools != nil {
		overlay(&cfg.Tools.Tshark, fc.Tools.Tshark)
		overlay(&cfg.Tools.Ifconfig, fc.Tools.Ifconfig)
		overlay(&cfg.Tools.Airodump, fc.Tools.Airodump)
		overlay(&cfg.Tools.Aireplay, fc.Tools.Aireplay)
		overlay(&cfg.Tools.Aircrack, fc.Tools.Aircrack)
		overlay(&cfg.Tools.Reaver, fc.Tools.Reaver)
	}
	overlay(&cfg.Wordlist, fc.Wordlist)
	overlay(&cfg.TempDir, fc.TempDir)
	overlay(&cfg.Output.HandshakeDir, fc.HandshakeDir)
	overlay(&cfg.Output.ResultsDB, fc.ResultsDB)
	if fc.KeepMAC != nil {
		cfg.MAC.DoNotChange = *fc.KeepMAC
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

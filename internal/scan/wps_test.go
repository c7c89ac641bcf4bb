package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

type fakeSource struct {
	available bool
	out       []byte
	err       error
	calls     int
}

func (f *fakeSource) Available() bool { return f.available }

func (f *fakeSource) WPSBeacons(context.Context, string) ([]byte, error) {
	f.calls++
	return f.out, f.err
}

func capFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wlfwifi-01.cap")
	require.NoError(t, os.WriteFile(path, []byte("pcap"), 0o600))
	return path
}

func scenarioTargets() []*wifi.Target {
	return []*wifi.Target{
		wifi.NewTarget("00:11:22:33:44:55", "first", 6, "WPA2", false),
		wifi.NewTarget("AA:BB:CC:DD:EE:FF", "second", 11, "WPA", true),
	}
}

func wpsFlags(targets []*wifi.Target) []bool {
	flags := make([]bool, len(targets))
	for i, t := range targets {
		flags[i] = t.WPS
	}
	return flags
}

func TestCheckTargets_AuthoritativeOverwrite(t *testing.T) {
	src := &fakeSource{available: true, out: []byte("00:11:22:33:44:55,0\n")}
	targets := scenarioTargets()

	ran := NewWPSDetector(src, true).CheckTargets(context.Background(), targets, capFile(t))

	assert.True(t, ran)
	assert.Equal(t, []bool{true, false}, wpsFlags(targets))
}

func TestCheckTargets_CaseInsensitiveAndDuplicates(t *testing.T) {
	src := &fakeSource{available: true, out: []byte(
		"aa:bb:cc:dd:ee:ff,0\naa:bb:cc:dd:ee:ff,1\nAA:BB:CC:DD:EE:FF,\n")}
	targets := []*wifi.Target{
		wifi.NewTarget("aa:bb:cc:dd:ee:ff", "lower", 1, "wpa2", false),
		wifi.NewTarget("00:11:22:33:44:55", "other", 1, "WPA2", true),
	}

	NewWPSDetector(src, false).CheckTargets(context.Background(), targets, capFile(t))

	assert.Equal(t, []bool{true, false}, wpsFlags(targets))
}

func TestCheckTargets_EmptyOrGarbageOutputClearsAll(t *testing.T) {
	for _, out := range []string{"", "\n\n", "tshark: some warning\n", "00:11:22:33:44,0\n"} {
		src := &fakeSource{available: true, out: []byte(out)}
		targets := scenarioTargets()
		targets[0].WPS = true

		assert.True(t, NewWPSDetector(src, false).CheckTargets(context.Background(), targets, capFile(t)))
		assert.Equal(t, []bool{false, false}, wpsFlags(targets), "output %q", out)
	}
}

func TestCheckTargets_NoOps(t *testing.T) {
	existing := capFile(t)
	missing := filepath.Join(t.TempDir(), "missing.cap")

	tests := []struct {
		name      string
		src       *fakeSource
		targets   []*wifi.Target
		cap       string
		wantCalls int
	}{
		{"tool unavailable", &fakeSource{available: false, out: []byte("00:11:22:33:44:55,0")}, scenarioTargets(), existing, 0},
		{"capture missing", &fakeSource{available: true, out: []byte("00:11:22:33:44:55,0")}, scenarioTargets(), missing, 0},
		{"invocation fails", &fakeSource{available: true, err: errors.New("exec: tshark: permission denied")}, scenarioTargets(), existing, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := NewWPSDetector(tt.src, true).CheckTargets(context.Background(), tt.targets, tt.cap)

			assert.False(t, ran)
			assert.Equal(t, []bool{false, true}, wpsFlags(tt.targets), "targets keep their input value")
			assert.Equal(t, tt.wantCalls, tt.src.calls)
		})
	}

	t.Run("no targets", func(t *testing.T) {
		src := &fakeSource{available: true}
		assert.False(t, NewWPSDetector(src, false).CheckTargets(context.Background(), nil, existing))
		assert.Zero(t, src.calls)
	})

	t.Run("nil source", func(t *testing.T) {
		targets := scenarioTargets()
		assert.False(t, NewWPSDetector(nil, false).CheckTargets(context.Background(), targets, existing))
		assert.Equal(t, []bool{false, true}, wpsFlags(targets))
	})
}

func TestParseWPSAddrs(t *testing.T) {
	set := parseWPSAddrs([]byte("0a:1b:2c:3d:4e:5f,1\nnot-a-mac\n00:11:22:33:44:55,0,AA:BB:CC:DD:EE:FF\n"))
	assert.Len(t, set, 3)
	assert.Contains(t, set, "0A:1B:2C:3D:4E:5F")
	assert.Contains(t, set, "AA:BB:CC:DD:EE:FF")
}

package tools

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wpsArgs = "-r scan-01.cap -n -Y wps.wifi_protected_setup_state && wlan.da == ff:ff:ff:ff:ff:ff -T fields -e wlan.ta -e wps.ap_setup_locked -E separator=,"

func TestTshark_WPSBeaconsArguments(t *testing.T) {
	r := &fakeRunner{outputs: map[string][]byte{wpsArgs: []byte("00:11:22:33:44:55,0\n")}}
	ts := NewTshark("tshark", r, false)

	out, err := ts.WPSBeacons(context.Background(), "scan-01.cap")
	require.NoError(t, err)
	assert.Equal(t, "00:11:22:33:44:55,0\n", string(out))
	require.Len(t, r.calls, 1)
	assert.Equal(t, "tshark", r.calls[0].name)
}

func TestTshark_NonZeroExitKeepsOutput(t *testing.T) {
	r := &fakeRunner{
		outputs: map[string][]byte{wpsArgs: []byte("AA:BB:CC:DD:EE:FF,1\n")},
		errs:    map[string]error{wpsArgs: &exec.ExitError{}},
	}
	out, err := NewTshark("tshark", r, true).WPSBeacons(context.Background(), "scan-01.cap")
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF,1\n", string(out))
}

func TestTshark_StartFailureIsError(t *testing.T) {
	boom := errors.New("exec: not started")
	r := &fakeRunner{errs: map[string]error{wpsArgs: boom}}
	_, err := NewTshark("tshark", r, false).WPSBeacons(context.Background(), "scan-01.cap")
	assert.ErrorIs(t, err, boom)
}

func TestCountHandshakes(t *testing.T) {
	const ap = "00:11:22:33:44:55"
	const sta = "de:ad:be:ef:00:01"

	m1 := ap + "," + sta + ",0x008a"
	m2 := sta + "," + ap + ",0x010a"
	m3 := ap + "," + sta + ",0x13ca"
	m4 := sta + "," + ap + ",0x030a"

	tests := []struct {
		name  string
		lines []string
		want  int
	}{
		{"empty", nil, 0},
		{"complete", []string{m1, m2, m3, m4}, 1},
		{"two in a row", []string{m1, m2, m3, m4, m1, m2, m3, m4}, 2},
		{"missing M3", []string{m1, m2, m4}, 0},
		{"restart on M1", []string{m1, m2, m1, m2, m3, m4}, 1},
		{"out of order", []string{m2, m1, m4, m3}, 0},
		{"other AP ignored", []string{
			"66:77:88:99:aa:bb," + sta + ",0x008a",
			sta + ",66:77:88:99:aa:bb,0x010a",
		}, 0},
		{"garbage lines", []string{"", "nonsense", ap + "," + sta + ",zz"}, 0},
		{"decimal key info", []string{
			ap + "," + sta + ",138",
			sta + "," + ap + ",266",
			ap + "," + sta + ",5066",
			sta + "," + ap + ",778",
		}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := []byte(strings.Join(tt.lines, "\n"))
			assert.Equal(t, tt.want, countHandshakes(out, strings.ToUpper(ap)))
		})
	}
}

func TestClassifyKeyInfo(t *testing.T) {
	assert.Equal(t, msg1, classifyKeyInfo(0x008a))
	assert.Equal(t, msg2, classifyKeyInfo(0x010a))
	assert.Equal(t, msg3, classifyKeyInfo(0x13ca))
	assert.Equal(t, msg4, classifyKeyInfo(0x030a))
	assert.Equal(t, msgUnknown, classifyKeyInfo(0))
}

package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airodumpCSV = "\r\n" +
	"BSSID, First time seen, Last time seen, channel, Speed, Privacy, Cipher, Authentication, Power, # beacons, # IV, LAN IP, ID-length, ESSID, Key\r\n" +
	"00:11:22:33:44:55, 2024-01-01 10:00:00, 2024-01-01 10:00:30,  6,  54, WPA2, CCMP, PSK, -42,      120,       15,   0.  0.  0.  0,   8, HomeNet, \r\n" +
	"AA:BB:CC:DD:EE:FF, 2024-01-01 10:00:01, 2024-01-01 10:00:31, 11,  54, WEP , WEP ,    , -70,       40,     9001,   0.  0.  0.  0,   0, , \r\n" +
	"66:77:88:99:AA:BB, 2024-01-01 10:00:02, 2024-01-01 10:00:32, -1,  -1, OPN ,     ,    ,  -1,        0,        0,   0.  0.  0.  0,   9, Café net, \r\n" +
	"\r\n" +
	"Station MAC, First time seen, Last time seen, Power, # packets, BSSID, Probed ESSIDs\r\n" +
	"DE:AD:BE:EF:00:01, 2024-01-01 10:00:05, 2024-01-01 10:00:29, -50,       33, 00:11:22:33:44:55,\r\n" +
	"DE:AD:BE:EF:00:02, 2024-01-01 10:00:06, 2024-01-01 10:00:28, -60,        4, (not associated) , HomeNet\r\n"

func TestParseAirodumpCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan-01.csv")
	require.NoError(t, os.WriteFile(path, []byte(airodumpCSV), 0o600))

	targets, clients, err := ParseAirodumpCSV(path)
	require.NoError(t, err)
	require.Len(t, targets, 3)
	require.Len(t, clients, 2)

	home := targets[0]
	assert.Equal(t, "00:11:22:33:44:55", home.BSSID)
	assert.Equal(t, "HomeNet", home.ESSID)
	assert.Equal(t, 6, home.Channel)
	assert.Equal(t, "WPA2", home.Encryption)
	assert.Equal(t, -42, home.Power)
	assert.Equal(t, 120, home.Beacons)
	assert.Equal(t, 15, home.IVs)
	assert.False(t, home.WPS)

	wep := targets[1]
	assert.True(t, wep.Hidden())
	assert.True(t, wep.IsWEP())
	assert.Equal(t, 9001, wep.IVs)

	assert.Equal(t, -1, targets[2].Channel)
	assert.Equal(t, "Café net", targets[2].ESSID)

	assert.Equal(t, "00:11:22:33:44:55", clients[0].TargetBSSID)
	assert.Equal(t, 33, clients[0].Packets)
	assert.False(t, clients[1].Associated())
}

func TestParseAirodumpCSV_Garbage(t *testing.T) {
	targets, clients, err := parseAirodumpCSV(strings.NewReader("not,a,csv\n\"unterminated\n"))
	require.NoError(t, err)
	assert.Empty(t, targets)
	assert.Empty(t, clients)

	_, _, err = ParseAirodumpCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestCaptureSessionPaths(t *testing.T) {
	cs := &CaptureSession{prefix: "/tmp/wlfwifi/wpa", tempDir: "/tmp/wlfwifi"}
	assert.Equal(t, "/tmp/wlfwifi/wpa-01.cap", cs.CapFile())
	assert.Equal(t, "/tmp/wlfwifi/wpa-01.csv", cs.CSVFile())
}

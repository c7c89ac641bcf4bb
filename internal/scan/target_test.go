package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

func TestTargetDB_RepeatedBSSIDIsUpdate(t *testing.T) {
	db := NewTargetDB(false)
	var seen []string
	db.OnNewTarget(func(tgt *wifi.Target) { seen = append(seen, tgt.BSSID) })

	first := db.UpdateTarget(wifi.NewTarget("aa:bb:cc:dd:ee:ff", "", 0, "WPA2", false))
	first.WPS = true

	again := wifi.NewTarget("AA:BB:CC:DD:EE:FF", "Office", 6, "WPA2", false)
	again.Power, again.Beacons = -40, 12
	second := db.UpdateTarget(again)

	assert.Same(t, first, second)
	assert.Equal(t, 1, db.Count())
	assert.Equal(t, []string{"aa:bb:cc:dd:ee:ff"}, seen)
	assert.Equal(t, "Office", second.ESSID)
	assert.Equal(t, 6, second.Channel)
	assert.Equal(t, 12, second.Beacons)
	assert.True(t, second.WPS, "sightings never touch the WPS flag")

	// a later hidden sighting does not erase the learned name
	db.UpdateTarget(wifi.NewTarget("aa:bb:cc:dd:ee:ff", "", -1, "", false))
	assert.Equal(t, "Office", second.ESSID)
	assert.Equal(t, 6, second.Channel)
	assert.Equal(t, "WPA2", second.Encryption)
}

func TestTargetDB_ClientReferentialConsistency(t *testing.T) {
	db := NewTargetDB(true)
	db.UpdateTarget(wifi.NewTarget("00:11:22:33:44:55", "home", 1, "WPA2", false))

	known := db.UpdateClient(wifi.NewClient("de:ad:be:ef:00:01", "00:11:22:33:44:55"))
	unknown := db.UpdateClient(wifi.NewClient("de:ad:be:ef:00:02", "66:77:88:99:AA:BB"))
	loose := db.UpdateClient(wifi.NewClient("de:ad:be:ef:00:03", ""))

	assert.Equal(t, "00:11:22:33:44:55", known.TargetBSSID)
	assert.Empty(t, unknown.TargetBSSID)
	assert.False(t, loose.Associated())

	clients := db.Clients("00:11:22:33:44:55")
	require.Len(t, clients, 1)
	assert.Equal(t, "de:ad:be:ef:00:01", clients[0].MAC)
}

func TestTargetDB_TargetsSortedByPower(t *testing.T) {
	db := NewTargetDB(false)
	for _, tc := range []struct {
		bssid string
		power int
	}{{"00:00:00:00:00:01", -80}, {"00:00:00:00:00:02", -30}, {"00:00:00:00:00:03", -55}} {
		tgt := wifi.NewTarget(tc.bssid, "n", 1, "WPA2", false)
		tgt.Power = tc.power
		db.UpdateTarget(tgt)
	}

	targets := db.Targets()
	require.Len(t, targets, 3)
	assert.Equal(t, "00:00:00:00:00:02", targets[0].BSSID)
	assert.Equal(t, "00:00:00:00:00:01", targets[2].BSSID)
	assert.NotNil(t, db.GetTarget("00:00:00:00:00:03"))
}

const mergeCSV = "BSSID, First time seen, Last time seen, channel, Speed, Privacy, Cipher, Authentication, Power, # beacons, # IV, LAN IP, ID-length, ESSID, Key\n" +
	"00:11:22:33:44:55, 2024-01-01 10:00:00, 2024-01-01 10:00:30,  6,  54, WPA2, CCMP, PSK, -42, 120, 0, 0.  0.  0.  0, 4, home, \n" +
	"AA:BB:CC:DD:EE:FF, 2024-01-01 10:00:00, 2024-01-01 10:00:30, 11,  54, WPA , TKIP, PSK, -61,  20, 0, 0.  0.  0.  0, 3, cafe, \n" +
	"12:34:56:78:9A:BC, 2024-01-01 10:00:00, 2024-01-01 10:00:30,  1,  11, WEP , WEP ,    , -70,  20, 5000, 0.  0.  0.  0, 3, old, \n" +
	"\n" +
	"Station MAC, First time seen, Last time seen, Power, # packets, BSSID, Probed ESSIDs\n" +
	"DE:AD:BE:EF:00:01, 2024-01-01 10:00:05, 2024-01-01 10:00:29, -50, 33, 00:11:22:33:44:55,\n" +
	"DE:AD:BE:EF:00:02, 2024-01-01 10:00:05, 2024-01-01 10:00:29, -50,  3, 01:02:03:04:05:06,\n"

func mergedDB(t *testing.T) *TargetDB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wlfwifi-01.csv")
	require.NoError(t, os.WriteFile(path, []byte(mergeCSV), 0o600))

	db := NewTargetDB(false)
	require.NoError(t, db.MergeAirodumpCSV(path))
	// merging the same dump twice must not duplicate anything
	require.NoError(t, db.MergeAirodumpCSV(path))
	return db
}

func TestMergeAirodumpCSV(t *testing.T) {
	db := mergedDB(t)

	assert.Equal(t, 3, db.Count())
	assert.Len(t, db.Clients("00:11:22:33:44:55"), 1)
	assert.Empty(t, db.Clients("01:02:03:04:05:06"))
	assert.Equal(t, 5000, db.GetTarget("12:34:56:78:9a:bc").IVs)

	assert.Error(t, db.MergeAirodumpCSV(filepath.Join(t.TempDir(), "missing.csv")))
}

func TestFilterTargets(t *testing.T) {
	db := mergedDB(t)
	db.GetTarget("AA:BB:CC:DD:EE:FF").WPS = true
	all := db.Targets()

	assert.Len(t, FilterTargets(db, all, Filter{}), 3)

	byBSSID := FilterTargets(db, all, Filter{BSSID: "aa:bb:cc:dd:ee:ff"})
	require.Len(t, byBSSID, 1)
	assert.Equal(t, "cafe", byBSSID[0].ESSID)

	assert.Len(t, FilterTargets(db, all, Filter{ESSID: "home"}), 1)

	wpsOnly := FilterTargets(db, all, Filter{WPSOnly: true})
	var names []string
	for _, tgt := range wpsOnly {
		names = append(names, tgt.ESSID)
	}
	assert.ElementsMatch(t, []string{"cafe", "old"}, names)

	withClients := FilterTargets(db, all, Filter{ClientsOnly: true})
	require.Len(t, withClients, 1)
	assert.Equal(t, "home", withClients[0].ESSID)
}

func TestTargetDB_SnapshotIsDetached(t *testing.T) {
	db := NewTargetDB(false)
	db.UpdateTarget(wifi.NewTarget("00:11:22:33:44:55", "lab", 1, "WEP", false))

	snap := db.Snapshot()
	require.Len(t, snap, 1)
	snap[0].ESSID = "changed"
	assert.Equal(t, "lab", db.GetTarget("00:11:22:33:44:55").ESSID)
}

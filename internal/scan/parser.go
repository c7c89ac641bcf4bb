package scan

import (
	"github.com/wlfwifi/wlfwifi/internal/tools"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// MergeAirodumpCSV merges targets and clients parsed from an airodump-ng CSV
// dump. Targets are merged first so client associations resolve.
func (db *TargetDB) MergeAirodumpCSV(csvPath string) error {
	targets, clients, err := tools.ParseAirodumpCSV(csvPath)
	if err != nil {
		return err
	}
	for _, t := range targets {
		db.UpdateTarget(t)
	}
	for _, c := range clients {
		db.UpdateClient(c)
	}
	return nil
}

// Filter narrows a candidate list. Empty fields match everything.
type Filter struct {
	BSSID string
	ESSID string
	// WPSOnly drops WPA targets without WPS; WEP targets stay.
	WPSOnly bool
	// ClientsOnly keeps targets with at least one associated station.
	ClientsOnly bool
}

// FilterTargets applies f to targets. Client counts come from db.
func FilterTargets(db *TargetDB, targets []*wifi.Target, f Filter) []*wifi.Target {
	var filtered []*wifi.Target
	for _, t := range targets {
		if f.BSSID != "" && !t.Is(f.BSSID) {
			continue
		}
		if f.ESSID != "" && t.ESSID != f.ESSID {
			continue
		}
		if f.WPSOnly && t.IsWPA() && !t.WPS {
			continue
		}
		if f.ClientsOnly && len(db.Clients(t.BSSID)) == 0 {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}

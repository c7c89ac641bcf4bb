package scan

import (
	"log"
	"sort"
	"sync"

	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// TargetDB holds the targets and clients of one discovery session. Targets
// are keyed by normalized BSSID so a repeated sighting is an update.
type TargetDB struct {
	targets map[string]*wifi.Target
	clients map[string]*wifi.Client
	mu      sync.RWMutex
	verbose bool

	onNewTarget func(*wifi.Target)
}

func NewTargetDB(verbose bool) *TargetDB {
	return &TargetDB{
		targets: make(map[string]*wifi.Target),
		clients: make(map[string]*wifi.Client),
		verbose: verbose,
	}
}

// OnNewTarget sets a callback for newly discovered targets. It runs on the
// caller's goroutine after the database lock is released.
func (db *TargetDB) OnNewTarget(fn func(*wifi.Target)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.onNewTarget = fn
}

// UpdateTarget records a sighting of seen. A known BSSID is updated in place
// and its WPS flag is left alone; the returned target is the stored one.
func (db *TargetDB) UpdateTarget(seen *wifi.Target) *wifi.Target {
	db.mu.Lock()
	key := seen.Key()
	t, exists := db.targets[key]
	if !exists {
		t = wifi.NewTarget(seen.BSSID, seen.ESSID, seen.Channel, seen.Encryption, seen.WPS)
		t.Power, t.Beacons, t.IVs = seen.Power, seen.Beacons, seen.IVs
		db.targets[key] = t
	} else {
		if !seen.Hidden() {
			t.ESSID = seen.ESSID
		}
		if seen.Channel > 0 {
			t.Channel = seen.Channel
		}
		if seen.Encryption != "" {
			t.Encryption = seen.Encryption
		}
		if seen.Power != 0 {
			t.Power = seen.Power
		}
		t.Beacons = max(t.Beacons, seen.Beacons)
		t.IVs = max(t.IVs, seen.IVs)
	}
	cb := db.onNewTarget
	db.mu.Unlock()

	if !exists && cb != nil {
		cb(t)
	}
	return t
}

// UpdateClient records a station. A TargetBSSID that does not name a known
// target is cleared so every stored association is resolvable.
func (db *TargetDB) UpdateClient(seen *wifi.Client) *wifi.Client {
	db.mu.Lock()
	defer db.mu.Unlock()

	bssid := seen.TargetBSSID
	if bssid != "" {
		if t, ok := db.targets[wifi.NormalizeBSSID(bssid)]; ok {
			bssid = t.BSSID
		} else {
			if db.verbose {
				log.Printf("[scan] client %s references unknown BSSID %s", seen.MAC, bssid)
			}
			bssid = ""
		}
	}

	c := wifi.NewClient(seen.MAC, bssid)
	c.Power, c.Packets = seen.Power, seen.Packets
	db.clients[wifi.NormalizeBSSID(seen.MAC)] = c
	return c
}

// Targets returns all targets sorted by signal strength (strongest first).
func (db *TargetDB) Targets() []*wifi.Target {
	db.mu.RLock()
	defer db.mu.RUnlock()

	targets := make([]*wifi.Target, 0, len(db.targets))
	for _, t := range db.targets {
		targets = append(targets, t)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].Power != targets[j].Power {
			// Higher power (less negative) = stronger signal
			return targets[i].Power > targets[j].Power
		}
		return targets[i].Key() < targets[j].Key()
	})
	return targets
}

// Snapshot returns copies of Targets for readers on other goroutines
// while a scan keeps updating the originals.
func (db *TargetDB) Snapshot() []*wifi.Target {
	targets := db.Targets()
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*wifi.Target, len(targets))
	for i, t := range targets {
		cp := *t
		out[i] = &cp
	}
	return out
}

// Clients returns the stations associated with bssid.
func (db *TargetDB) Clients(bssid string) []*wifi.Client {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []*wifi.Client
	for _, c := range db.clients {
		if c.Associated() && wifi.NormalizeBSSID(c.TargetBSSID) == wifi.NormalizeBSSID(bssid) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Packets > out[j].Packets })
	return out
}

// GetTarget returns a target by BSSID, ignoring case.
func (db *TargetDB) GetTarget(bssid string) *wifi.Target {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.targets[wifi.NormalizeBSSID(bssid)]
}

// Count returns the number of targets.
func (db *TargetDB) Count() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.targets)
}

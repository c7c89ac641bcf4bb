package scan

import (
	"context"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

var hwAddrTokenRe = regexp.MustCompile(`(?i)[0-9a-f]{2}(?::[0-9a-f]{2}){5}`)

// WPSSource is the packet-inspection tool the detector reads WPS beacons
// from. tools.Tshark satisfies it.
type WPSSource interface {
	Available() bool
	WPSBeacons(ctx context.Context, capFile string) ([]byte, error)
}

// WPSDetector sets Target.WPS from the WPS setup frames found in a capture.
type WPSDetector struct {
	src     WPSSource
	verbose bool
}

func NewWPSDetector(src WPSSource, verbose bool) *WPSDetector {
	return &WPSDetector{src: src, verbose: verbose}
}

// CheckTargets overwrites the WPS flag of every target: true when its BSSID
// broadcast a WPS setup state in capFile, false otherwise. It reports
// whether classification ran. A missing tool, an empty target list, a
// missing capture or a failed invocation leave every target untouched.
func (d *WPSDetector) CheckTargets(ctx context.Context, targets []*wifi.Target, capFile string) bool {
	if d.src == nil || !d.src.Available() {
		if d.verbose {
			log.Printf("[wps] packet inspection tool not found, skipping WPS detection")
		}
		return false
	}
	if len(targets) == 0 {
		if d.verbose {
			log.Printf("[wps] no targets to check")
		}
		return false
	}
	if _, err := os.Stat(capFile); err != nil {
		if d.verbose {
			log.Printf("[wps] capture file %q not found, skipping WPS detection", capFile)
		}
		return false
	}

	out, err := d.src.WPSBeacons(ctx, capFile)
	if err != nil {
		log.Printf("[wps] unable to inspect %s: %v", capFile, err)
		return false
	}

	wps := parseWPSAddrs(out)
	for _, t := range targets {
		_, t.WPS = wps[t.Key()]
	}
	if d.verbose {
		log.Printf("[wps] %d of %d targets advertise WPS", countWPS(targets), len(targets))
	}
	return true
}

// parseWPSAddrs collects every hardware address in out, uppercased.
func parseWPSAddrs(out []byte) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range hwAddrTokenRe.FindAllString(string(out), -1) {
		set[strings.ToUpper(m)] = struct{}{}
	}
	return set
}

func countWPS(targets []*wifi.Target) int {
	n := 0
	for _, t := range targets {
		if t.WPS {
			n++
		}
	}
	return n
}

package scan

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/wlfwifi/wlfwifi/internal/config"
	"github.com/wlfwifi/wlfwifi/internal/telemetry"
	"github.com/wlfwifi/wlfwifi/internal/tools"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

const scanPrefix = "wlfwifi"

// Discovery runs an airodump-ng scan, folds its CSV into a TargetDB and
// classifies WPS support once the scan stops.
type Discovery struct {
	cfg      *config.Config
	airodump *tools.AirodumpNG
	wps      *WPSDetector
	db       *TargetDB
}

func NewDiscovery(cfg *config.Config, airodump *tools.AirodumpNG, wps *WPSDetector) *Discovery {
	return &Discovery{
		cfg:      cfg,
		airodump: airodump,
		wps:      wps,
		db:       NewTargetDB(cfg.Verbose),
	}
}

// DB returns the underlying target database.
func (d *Discovery) DB() *TargetDB {
	return d.db
}

// Run scans iface until the scan timeout elapses or ctx is cancelled.
// Cancellation ends the scan normally; whatever was seen is returned.
func (d *Discovery) Run(ctx context.Context, iface string) ([]*wifi.Target, error) {
	cs, err := d.airodump.StartScan(ctx, iface, d.cfg.Channel, d.cfg.TempDir, scanPrefix)
	if err != nil {
		return nil, err
	}
	defer cs.Cleanup()

	var deadline <-chan time.Time
	if d.cfg.Scan.Timeout > 0 {
		timer := time.NewTimer(d.cfg.Scan.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline:
			break loop
		case <-cs.Process().Done():
			log.Printf("[scan] %s exited early", d.cfg.Tools.Airodump)
			break loop
		case <-ticker.C:
			d.merge(cs.CSVFile())
		}
	}

	cs.Stop()
	d.merge(cs.CSVFile())

	targets := d.db.Targets()
	telemetry.TargetsDiscovered.WithLabelValues(iface).Add(float64(len(targets)))
	if d.wps.CheckTargets(context.WithoutCancel(ctx), targets, cs.CapFile()) {
		telemetry.WPSTargets.WithLabelValues(iface).Add(float64(countWPS(targets)))
	}
	return targets, nil
}

func (d *Discovery) merge(csvPath string) {
	err := d.db.MergeAirodumpCSV(csvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) && d.cfg.Verbose {
		log.Printf("[scan] reading %s: %v", csvPath, err)
	}
}

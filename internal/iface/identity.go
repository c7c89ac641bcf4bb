package iface

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"sync"

	"github.com/wlfwifi/wlfwifi/internal/telemetry"
)

// ErrBadHardwareAddr is returned for strings that are not six hex pairs.
var ErrBadHardwareAddr = errors.New("malformed hardware address")

var hwAddrRe = regexp.MustCompile(`^[0-9A-Fa-f]{2}(?:[:-][0-9A-Fa-f]{2}){5}$`)

// randByte is swapped in tests to force collisions.
var randByte = func() byte { return byte(rand.Intn(256)) }

// Configurator is the interface-configuration tool. tools.Ifconfig
// satisfies it.
type Configurator interface {
	Available() bool
	HardwareAddr(ctx context.Context, iface string) (string, error)
	Down(ctx context.Context, iface string) error
	Up(ctx context.Context, iface string) error
	SetHardwareAddr(ctx context.Context, iface, mac string) error
}

type identity struct {
	iface    string
	original string
}

// IdentityManager swaps an interface's MAC for a random one that keeps the
// vendor prefix, and puts the original back on Restore. The original is
// recorded once per interface and is the only source used for restoring.
type IdentityManager struct {
	conf     Configurator
	disabled bool
	verbose  bool

	// Status receives operator-facing progress lines.
	Status func(format string, args ...any)

	records []identity
	mu      sync.Mutex
}

// NewIdentityManager returns a manager. With disabled set every call is a
// no-op, matching the keep-MAC setting.
func NewIdentityManager(conf Configurator, disabled, verbose bool) *IdentityManager {
	return &IdentityManager{
		conf:     conf,
		disabled: disabled,
		verbose:  verbose,
		Status:   log.Printf,
	}
}

// Randomize gives iface a random address with the same vendor prefix. It is
// a no-op when MAC changes are disabled or the tool is missing. Calling it
// again for the same interface keeps the first recorded original.
func (m *IdentityManager) Randomize(ctx context.Context, iface string) error {
	if m.disabled {
		if m.verbose {
			log.Printf("[mac] keeping the hardware address of %s", iface)
		}
		return nil
	}
	if m.conf == nil || !m.conf.Available() {
		if m.verbose {
			log.Printf("[mac] interface configuration tool not found, not changing %s", iface)
		}
		return nil
	}

	current, err := m.conf.HardwareAddr(ctx, iface)
	if err != nil {
		return fmt.Errorf("query %s: %w", iface, err)
	}
	if !hwAddrRe.MatchString(strings.TrimSpace(current)) {
		return fmt.Errorf("query %s: %w: %q", iface, ErrBadHardwareAddr, current)
	}

	m.mu.Lock()
	original := m.record(iface, current)
	m.mu.Unlock()

	newMAC, err := RandomizeMAC(original)
	if err != nil {
		return err
	}
	for strings.EqualFold(newMAC, canonicalMAC(current)) {
		if newMAC, err = RandomizeMAC(original); err != nil {
			return err
		}
	}

	m.Status("[+] changing %s's MAC from %s to %s...", iface, current, newMAC)
	err = m.apply(ctx, iface, newMAC)
	telemetry.ObserveIdentity("randomize", err)
	if err != nil {
		return fmt.Errorf("randomize %s: %w", iface, err)
	}
	return nil
}

// record stores the original address for iface unless one is already held
// and returns the address to restore.
func (m *IdentityManager) record(iface, mac string) string {
	for _, r := range m.records {
		if r.iface == iface {
			return r.original
		}
	}
	m.records = append(m.records, identity{iface: iface, original: mac})
	return mac
}

// Restore reapplies every recorded original address and clears the records,
// so a second call is a no-op. A failing step is logged and the remaining
// steps still run; the failures are returned joined.
func (m *IdentityManager) Restore(ctx context.Context) error {
	m.mu.Lock()
	records := m.records
	m.records = nil
	m.mu.Unlock()

	var errs []error
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.iface == "" || r.original == "" {
			continue
		}
		m.Status("[+] restoring %s's MAC to %s...", r.iface, r.original)
		err := m.applyAll(ctx, r.iface, canonicalMAC(r.original))
		telemetry.ObserveIdentity("restore", err)
		if err != nil {
			log.Printf("[mac] restoring %s: %v", r.iface, err)
			errs = append(errs, fmt.Errorf("restore %s: %w", r.iface, err))
		}
	}
	return errors.Join(errs...)
}

// Recorded returns the original address held for iface, if any.
func (m *IdentityManager) Recorded(iface string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.iface == iface {
			return r.original, true
		}
	}
	return "", false
}

// apply stops at the first failing step but always tries to bring the
// interface back up once it was taken down.
func (m *IdentityManager) apply(ctx context.Context, iface, mac string) error {
	if err := m.conf.Down(ctx, iface); err != nil {
		return err
	}
	if err := m.conf.SetHardwareAddr(ctx, iface, mac); err != nil {
		return errors.Join(err, m.conf.Up(ctx, iface))
	}
	return m.conf.Up(ctx, iface)
}

// applyAll runs every step regardless of earlier failures.
func (m *IdentityManager) applyAll(ctx context.Context, iface, mac string) error {
	return errors.Join(
		m.conf.Down(ctx, iface),
		m.conf.SetHardwareAddr(ctx, iface, mac),
		m.conf.Up(ctx, iface),
	)
}

// RandomizeMAC returns a lowercase colon-separated address that shares the
// first three octets of orig and differs from it. orig may use colons or
// hyphens.
func RandomizeMAC(orig string) (string, error) {
	orig = strings.TrimSpace(orig)
	if !hwAddrRe.MatchString(orig) {
		return "", fmt.Errorf("%w: %q", ErrBadHardwareAddr, orig)
	}
	want := canonicalMAC(orig)
	prefix := want[:8]
	for {
		mac := fmt.Sprintf("%s:%02x:%02x:%02x", prefix, randByte(), randByte(), randByte())
		if mac != want {
			return mac, nil
		}
	}
}

func canonicalMAC(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", ":")
}

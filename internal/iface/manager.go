package iface

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrNoInterface is returned when no usable wireless interface exists.
var ErrNoInterface = errors.New("no wireless interface found")

// WirelessInterface represents a WiFi adapter.
type WirelessInterface struct {
	Name    string
	PHY     string
	Driver  string
	MAC     string
	Monitor bool
}

// Manager puts one interface into monitor mode and takes it back out.
// Platform-specific operations live in platform_linux.go / platform_other.go.
type Manager struct {
	monitorIface string
	enabled      bool
	mu           sync.Mutex
}

func NewManager() *Manager {
	return &Manager{}
}

// DetectInterfaces finds all wireless interfaces on the system.
func (m *Manager) DetectInterfaces() ([]WirelessInterface, error) {
	return detectInterfaces()
}

// SelectInterface returns preferred, or the first interface already in
// monitor mode, or the first one found.
func (m *Manager) SelectInterface(preferred string) (*WirelessInterface, error) {
	ifaces, err := m.DetectInterfaces()
	if err != nil {
		return nil, err
	}
	return pickInterface(ifaces, preferred)
}

func pickInterface(ifaces []WirelessInterface, preferred string) (*WirelessInterface, error) {
	if len(ifaces) == 0 {
		return nil, ErrNoInterface
	}
	if preferred != "" {
		for i := range ifaces {
			if ifaces[i].Name == preferred {
				return &ifaces[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNoInterface, preferred)
	}
	for i := range ifaces {
		if ifaces[i].Monitor {
			return &ifaces[i], nil
		}
	}
	return &ifaces[0], nil
}

// EnableMonitorMode puts wi into monitor mode unless it already is, and
// returns the name of the monitor interface.
func (m *Manager) EnableMonitorMode(ctx context.Context, wi *WirelessInterface) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if wi.Monitor {
		m.monitorIface = wi.Name
		return wi.Name, nil
	}
	mon, err := enableMonitorMode(ctx, wi.Name)
	if err != nil {
		return "", err
	}
	m.monitorIface = mon
	m.enabled = true
	return mon, nil
}

// DisableMonitorMode returns the interface to managed mode if this manager
// enabled monitor mode. It is safe to call more than once.
func (m *Manager) DisableMonitorMode(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return nil
	}
	err := disableMonitorMode(ctx, m.monitorIface)
	m.enabled = false
	return err
}

// MonitorInterface returns the current monitor interface name.
func (m *Manager) MonitorInterface() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monitorIface
}

// IsLinux returns true if running on Linux.
func IsLinux() bool {
	return runtime.GOOS == "linux"
}

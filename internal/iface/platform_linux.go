//go:build linux

package iface

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wlfwifi/wlfwifi/internal/tools"
)

const sysNet = "/sys/class/net"

// ARPHRD_IEEE80211_RADIOTAP, the link type of an interface in monitor mode.
const arphrdRadiotap = "803"

// Services known to fight over the interface once it leaves managed mode.
var interferingProcesses = []string{
	"NetworkManager",
	"wpa_supplicant",
	"dhclient",
	"dhcpcd",
	"avahi-daemon",
}

func detectInterfaces() ([]WirelessInterface, error) {
	entries, err := os.ReadDir(sysNet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sysNet, err)
	}

	var ifaces []WirelessInterface
	for _, entry := range entries {
		name := entry.Name()
		if !exists(filepath.Join(sysNet, name, "wireless")) && !exists(filepath.Join(sysNet, name, "phy80211")) {
			continue
		}

		wi := WirelessInterface{
			Name:    name,
			MAC:     readSys(name, "address"),
			Monitor: readSys(name, "type") == arphrdRadiotap,
		}
		if link, err := os.Readlink(filepath.Join(sysNet, name, "phy80211")); err == nil {
			wi.PHY = filepath.Base(link)
		}
		if link, err := os.Readlink(filepath.Join(sysNet, name, "device", "driver")); err == nil {
			wi.Driver = filepath.Base(link)
		}
		ifaces = append(ifaces, wi)
	}
	return ifaces, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readSys(iface, attr string) string {
	b, err := os.ReadFile(filepath.Join(sysNet, iface, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func enableMonitorMode(ctx context.Context, iface string) (string, error) {
	for _, proc := range interferingProcesses {
		_ = tools.RunSilent(ctx, "systemctl", "stop", proc)
		_ = tools.RunSilent(ctx, "pkill", proc)
	}

	if out, err := tools.RunCapture(ctx, "ip", "link", "set", iface, "down"); err != nil {
		return "", fmt.Errorf("bring %s down: %w: %s", iface, err, out)
	}
	if _, err := tools.RunCapture(ctx, "iw", "dev", iface, "set", "type", "monitor"); err != nil {
		if _, err2 := tools.RunCapture(ctx, "iwconfig", iface, "mode", "monitor"); err2 != nil {
			_ = tools.RunSilent(ctx, "ip", "link", "set", iface, "up")
			return "", fmt.Errorf("set monitor mode: %w (iwconfig fallback: %w)", err, err2)
		}
	}
	if out, err := tools.RunCapture(ctx, "ip", "link", "set", iface, "up"); err != nil {
		return "", fmt.Errorf("bring %s up: %w: %s", iface, err, out)
	}
	return iface, nil
}

func disableMonitorMode(ctx context.Context, iface string) error {
	err := errors.Join(
		tools.RunSilent(ctx, "ip", "link", "set", iface, "down"),
		tools.RunSilent(ctx, "iw", "dev", iface, "set", "type", "managed"),
		tools.RunSilent(ctx, "ip", "link", "set", iface, "up"),
	)
	_ = tools.RunSilent(ctx, "systemctl", "start", "NetworkManager")
	return err
}

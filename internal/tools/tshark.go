package tools

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log"
	"os/exec"
	"strconv"
	"strings"

	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// EAPOL key information bits.
const (
	keyInfoInstall = 0x0040
	keyInfoAck     = 0x0080
	keyInfoMIC     = 0x0100
	keyInfoSecure  = 0x0200
)

// Tshark wraps tshark for WPS detection and handshake counting.
type Tshark struct {
	name    string
	run     Runner
	tool    *ExternalTool
	verbose bool
}

func NewTshark(name string, run Runner, verbose bool) *Tshark {
	return &Tshark{
		name:    name,
		run:     run,
		tool:    &ExternalTool{Name: name, Required: false},
		verbose: verbose,
	}
}

func (t *Tshark) Available() bool {
	return t.tool.Exists()
}

// WPSBeacons returns the raw "transmitter,locked" records for every frame in
// capFile that carries a WPS setup state and is sent to broadcast.
func (t *Tshark) WPSBeacons(ctx context.Context, capFile string) ([]byte, error) {
	return t.output(ctx,
		"-r", capFile,
		"-n",
		"-Y", "wps.wifi_protected_setup_state && wlan.da == "+wifi.BroadcastMAC,
		"-T", "fields",
		"-e", "wlan.ta",
		"-e", "wps.ap_setup_locked",
		"-E", "separator=,",
	)
}

// CountHandshakes returns the number of complete 4-way handshakes between
// bssid and any station in capFile.
func (t *Tshark) CountHandshakes(ctx context.Context, capFile, bssid string) (int, error) {
	out, err := t.output(ctx,
		"-r", capFile,
		"-n",
		"-Y", "eapol && wlan.bssid == "+strings.ToLower(bssid),
		"-T", "fields",
		"-e", "wlan.ta",
		"-e", "wlan.ra",
		"-e", "wlan_rsna_eapol.keydes.key_info",
		"-E", "separator=,",
	)
	if err != nil {
		return 0, err
	}
	return countHandshakes(out, bssid), nil
}

// output runs tshark and keeps whatever it printed even when it exits
// non-zero. Only a failure to run it at all is returned.
func (t *Tshark) output(ctx context.Context, args ...string) ([]byte, error) {
	out, err := t.run.Output(ctx, t.name, args...)
	if err == nil {
		return out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if t.verbose {
			log.Printf("[tshark] exited with %v, using %d bytes of output", err, len(out))
		}
		return out, nil
	}
	return nil, err
}

type eapolMessage int

const (
	msgUnknown eapolMessage = iota
	msg1
	msg2
	msg3
	msg4
)

func classifyKeyInfo(info uint64) eapolMessage {
	ack := info&keyInfoAck != 0
	mic := info&keyInfoMIC != 0
	secure := info&keyInfoSecure != 0
	install := info&keyInfoInstall != 0

	switch {
	case ack && !mic:
		return msg1
	case ack && mic && install:
		return msg3
	case !ack && mic && !secure:
		return msg2
	case !ack && mic && secure:
		return msg4
	}
	return msgUnknown
}

// countHandshakes walks "ta,ra,key_info" records in capture order. Each
// station must show M1 through M4 in sequence; a new M1 restarts it.
func countHandshakes(out []byte, bssid string) int {
	ap := wifi.NormalizeBSSID(bssid)
	progress := make(map[string]eapolMessage)
	count := 0

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(fields) < 3 {
			continue
		}
		ta := wifi.NormalizeBSSID(fields[0])
		ra := wifi.NormalizeBSSID(fields[1])
		info, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 0, 16)
		if err != nil {
			continue
		}

		station := ta
		if ta == ap {
			station = ra
		} else if ra != ap {
			continue
		}

		msg := classifyKeyInfo(info)
		switch {
		case msg == msg1:
			progress[station] = msg1
		case msg != msgUnknown && progress[station] == msg-1:
			progress[station] = msg
			if msg == msg4 {
				count++
				delete(progress, station)
			}
		}
	}
	return count
}

package wifi

import (
	"fmt"
	"strings"

	"github.com/wlfwifi/wlfwifi/pkg/fsutil"
)

// Encryption labels as reported by airodump-ng. Target.Encryption is free-form
// and is never normalized; these are only used for classification.
const (
	EncWEP  = "WEP"
	EncWPA  = "WPA"
	EncWPA2 = "WPA2"
	EncOpen = "OPN"
)

// BroadcastMAC is the all-ones hardware address.
const BroadcastMAC = "ff:ff:ff:ff:ff:ff"

// NormalizeBSSID returns the comparison key for a hardware address string.
func NormalizeBSSID(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Target is a discovered access point.
type Target struct {
	BSSID      string
	ESSID      string
	Channel    int
	Encryption string
	WPS        bool

	Power   int
	Beacons int
	IVs     int
}

func NewTarget(bssid, essid string, channel int, encryption string, wps bool) *Target {
	return &Target{
		BSSID:      bssid,
		ESSID:      essid,
		Channel:    channel,
		Encryption: encryption,
		WPS:        wps,
	}
}

// Key is the case-insensitive identity of the target within a scan.
func (t *Target) Key() string {
	return NormalizeBSSID(t.BSSID)
}

// Is reports whether the target's BSSID matches bssid, ignoring case.
func (t *Target) Is(bssid string) bool {
	return strings.EqualFold(strings.TrimSpace(t.BSSID), strings.TrimSpace(bssid))
}

func (t *Target) Hidden() bool {
	return t.ESSID == "" || strings.HasPrefix(t.ESSID, `\x00`)
}

// IsWEP reports whether the encryption label names WEP.
func (t *Target) IsWEP() bool {
	return strings.Contains(strings.ToUpper(t.Encryption), EncWEP)
}

// IsWPA reports whether the encryption label names WPA or WPA2.
func (t *Target) IsWPA() bool {
	return strings.Contains(strings.ToUpper(t.Encryption), EncWPA)
}

func (t *Target) String() string {
	essid := t.ESSID
	if t.Hidden() {
		essid = "<hidden>"
	}
	return fmt.Sprintf("%s [%s] Ch:%d %s", essid, t.BSSID, t.Channel, t.Encryption)
}

// Client is a station seen talking to an access point. TargetBSSID may be
// empty when the station could not be tied to a known target.
type Client struct {
	MAC         string
	TargetBSSID string
	Power       int
	Packets     int
}

func NewClient(mac, targetBSSID string) *Client {
	return &Client{MAC: mac, TargetBSSID: targetBSSID}
}

func (c *Client) Associated() bool {
	return c.TargetBSSID != ""
}

func (c *Client) String() string {
	bssid := c.TargetBSSID
	if bssid == "" {
		bssid = "(not associated)"
	}
	return fmt.Sprintf("%s -> %s", c.MAC, bssid)
}

// CapFile is the on-disk capture of the current session. Handshakes counts
// completed 4-way handshakes or WPS exchanges; negative values mean unset.
type CapFile struct {
	Path       string
	Handshakes int
}

func NewCapFile(path string) *CapFile {
	return &CapFile{Path: path}
}

// Rename moves the capture to newPath. Path is only updated once the move
// succeeded, so it always names the file that exists on disk.
func (c *CapFile) Rename(newPath string) error {
	if newPath == c.Path {
		return nil
	}
	if err := fsutil.SafeRename(c.Path, newPath); err != nil {
		return err
	}
	c.Path = newPath
	return nil
}

// AddHandshakes increments the handshake count, treating an unset count as zero.
func (c *CapFile) AddHandshakes(n int) {
	if c.Handshakes < 0 {
		c.Handshakes = 0
	}
	c.Handshakes += n
}

func (c *CapFile) HasHandshake() bool {
	return c.Handshakes > 0
}

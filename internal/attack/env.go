package attack

import (
	"context"
	"log"

	"github.com/wlfwifi/wlfwifi/internal/config"
	"github.com/wlfwifi/wlfwifi/internal/tools"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// Deauther kicks clients off an access point. An empty client means
// broadcast. tools.AireplayNG and NativeDeauther both satisfy it.
type Deauther interface {
	Deauth(ctx context.Context, iface, bssid, client string, count int) error
}

// HandshakeCounter counts complete 4-way handshakes in a capture.
type HandshakeCounter interface {
	Available() bool
	CountHandshakes(ctx context.Context, capFile, bssid string) (int, error)
}

// WPSCracker runs the WPS PIN attacks. tools.Reaver satisfies it.
type WPSCracker interface {
	Available() bool
	PixieDust(ctx context.Context, iface, bssid string, channel int) (*tools.WPSResult, error)
	PINSearch(ctx context.Context, iface, bssid string, channel int) (*tools.Process, error)
}

var (
	_ Deauther         = (*tools.AireplayNG)(nil)
	_ HandshakeCounter = (*tools.Tshark)(nil)
	_ WPSCracker       = (*tools.Reaver)(nil)
)

// Toolbox bundles the external tools the attacks drive. Nil members count
// as not installed.
type Toolbox struct {
	Airodump   *tools.AirodumpNG
	Aireplay   *tools.AireplayNG
	Aircrack   *tools.AircrackNG
	Handshakes HandshakeCounter
	WPS        WPSCracker
	Deauther   Deauther
}

// NewToolbox wires the configured binaries. Deauthentication falls back to
// native frame injection when aireplay-ng is missing.
func NewToolbox(cfg *config.Config) Toolbox {
	names := cfg.Tools
	tb := Toolbox{
		Airodump:   tools.NewAirodumpNG(names.Airodump),
		Aireplay:   tools.NewAireplayNG(names.Aireplay),
		Aircrack:   tools.NewAircrackNG(names.Aircrack),
		Handshakes: tools.NewTshark(names.Tshark, tools.ExecRunner{}, cfg.Verbose),
		WPS:        tools.NewReaver(names.Reaver),
	}
	if tb.Aireplay.Available() {
		tb.Deauther = tb.Aireplay
	} else {
		if cfg.Verbose {
			log.Printf("[attack] %s not found, using native deauth injection", names.Aireplay)
		}
		tb.Deauther = NativeDeauther{}
	}
	return tb
}

// Env is what every attack needs besides its target.
type Env struct {
	Config *config.Config
	Iface  string
	Tools  Toolbox

	// Clients lists stations associated with bssid. Optional.
	Clients func(bssid string) []*wifi.Client

	// Status receives progress updates. Optional.
	Status func(StatusUpdate)
}

func (e *Env) report(u StatusUpdate) {
	if e.Status != nil {
		e.Status(u)
	}
}

func (e *Env) clientsOf(bssid string) []*wifi.Client {
	if e.Clients == nil {
		return nil
	}
	return e.Clients(bssid)
}

func (e *Env) logf(format string, args ...any) {
	if e.Config != nil && e.Config.Verbose {
		log.Printf(format, args...)
	}
}

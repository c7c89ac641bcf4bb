package iface

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wlfwifi/wlfwifi/internal/config"
	"github.com/wlfwifi/wlfwifi/internal/tools"
)

// SetChannel tunes a monitor interface to a fixed channel before the scan.
// airodump-ng and reaver retune for each target on their own.
func SetChannel(ctx context.Context, iface string, channel int) error {
	if !config.ValidChannel(channel) {
		return fmt.Errorf("set channel: %d is not a valid channel", channel)
	}
	ch := strconv.Itoa(channel)
	_, err := tools.RunCapture(ctx, "iw", "dev", iface, "set", "channel", ch)
	if err != nil {
		// Fallback to iwconfig
		_, err = tools.RunCapture(ctx, "iwconfig", iface, "channel", ch)
	}
	return err
}

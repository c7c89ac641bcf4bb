//go:build !linux

package iface

import (
	"context"
	"errors"
)

var errUnsupported = errors.New("monitor mode requires Linux with a compatible wireless adapter; " +
	"'wlfwifi deps', 'wlfwifi cracked' and 'wlfwifi clean' still work here")

func detectInterfaces() ([]WirelessInterface, error) {
	return nil, errUnsupported
}

func enableMonitorMode(ctx context.Context, iface string) (string, error) {
	return "", errUnsupported
}

func disableMonitorMode(ctx context.Context, iface string) error {
	return nil
}

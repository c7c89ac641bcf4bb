package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ifconfigOutput = `wlan0: flags=4163<UP,BROADCAST,RUNNING,MULTICAST>  mtu 1500
        inet 192.168.1.20  netmask 255.255.255.0  broadcast 192.168.1.255
        ether 00:11:22:33:44:55  txqueuelen 1000  (Ethernet)
`

func TestIfconfig_HardwareAddr(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"net-tools colon form", ifconfigOutput, "00:11:22:33:44:55"},
		{"hyphen form", "wlan0 Link encap:UNSPEC HWaddr 00-C0-CA-12-34-56-00-00\n", "00-C0-CA-12-34-56"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{outputs: map[string][]byte{"wlan0": []byte(tt.out)}}
			mac, err := NewIfconfig("ifconfig", r).HardwareAddr(context.Background(), "wlan0")
			require.NoError(t, err)
			assert.Equal(t, tt.want, mac)
		})
	}
}

func TestIfconfig_HardwareAddrErrors(t *testing.T) {
	r := &fakeRunner{outputs: map[string][]byte{"wlan0": []byte("wlan0: flags=4098<BROADCAST>\n")}}
	_, err := NewIfconfig("ifconfig", r).HardwareAddr(context.Background(), "wlan0")
	assert.Error(t, err)

	r = &fakeRunner{errs: map[string]error{"wlan0": errors.New("no such device")}}
	_, err = NewIfconfig("ifconfig", r).HardwareAddr(context.Background(), "wlan0")
	assert.Error(t, err)
}

func TestIfconfig_Commands(t *testing.T) {
	r := &fakeRunner{}
	ic := NewIfconfig("/sbin/ifconfig", r)
	ctx := context.Background()

	require.NoError(t, ic.Down(ctx, "wlan0"))
	require.NoError(t, ic.SetHardwareAddr(ctx, "wlan0", "00:11:22:ab:cd:ef"))
	require.NoError(t, ic.Up(ctx, "wlan0"))

	var got []string
	for _, c := range r.calls {
		got = append(got, c.String())
	}
	assert.Equal(t, []string{
		"/sbin/ifconfig wlan0 down",
		"/sbin/ifconfig wlan0 hw ether 00:11:22:ab:cd:ef",
		"/sbin/ifconfig wlan0 up",
	}, got)
}

func TestIfconfig_CommandError(t *testing.T) {
	r := &fakeRunner{errs: map[string]error{"wlan0 down": errors.New("permission denied")}}
	err := NewIfconfig("ifconfig", r).Down(context.Background(), "wlan0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wlan0 down")
}

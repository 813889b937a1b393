package hal

import (
	"net/netip"
	"runtime"

	"github.com/danmuck/rvhal/internal/trap"
)

// Mode is the radio operating mode as the firmware reports it.
type Mode uint32

const (
	ModeNull      Mode = 0
	ModeStation   Mode = 1
	ModeAP        Mode = 2
	ModeAPStation Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeNull:
		return "null"
	case ModeStation:
		return "station"
	case ModeAP:
		return "ap"
	case ModeAPStation:
		return "ap+station"
	default:
		return "unknown"
	}
}

// WiFi queries and commands the radio. Nothing is cached between calls.
type WiFi struct {
	c *Client
}

func (c *Client) WiFi() WiFi {
	return WiFi{c: c}
}

func (w WiFi) Mode() (Mode, error) {
	v, err := trap.Call1(w.c.gate, trap.WiFiGetMode, 0).Unwrap()
	return Mode(v), err
}

// SetMode reports whether the radio accepted the mode.
func (w WiFi) SetMode(m Mode) (bool, error) {
	v, err := trap.Call1(w.c.gate, trap.WiFiSetMode, uint32(m)).Unwrap()
	return v != 0, err
}

func (w WiFi) Channel() (uint32, error) {
	return trap.Call1(w.c.gate, trap.WiFiGetChannel, 0).Unwrap()
}

func (w WiFi) Connected() (bool, error) {
	v, err := trap.Call1(w.c.gate, trap.WiFiIsConnected, 0).Unwrap()
	return v != 0, err
}

// JoinStation starts joining ssid as a station. It returns once the firmware
// has accepted the request, not once associated; poll Connected for that.
// Channel 0 lets the radio scan.
func (w WiFi) JoinStation(ssid, password string, channel uint32) (bool, error) {
	sb, pb := trap.StringBytes(ssid), trap.StringBytes(password)
	res := trap.Call5(w.c.gate, trap.WiFiConnectStation,
		w.c.gate.Addr(sb),
		trap.Len(sb),
		w.c.gate.Addr(pb),
		trap.Len(pb),
		channel,
	)
	runtime.KeepAlive(sb)
	runtime.KeepAlive(pb)
	v, err := res.Unwrap()
	return v != 0, err
}

// IPv4 returns the station address assigned to the radio.
func (w WiFi) IPv4() (netip.Addr, error) {
	v, err := trap.Call1(w.c.gate, trap.WiFiIPv4, 0).Unwrap()
	if err != nil {
		return netip.Addr{}, err
	}
	return DecodeIPv4(v), nil
}

// DecodeIPv4 unpacks an address whose low byte is the first octet.
func DecodeIPv4(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

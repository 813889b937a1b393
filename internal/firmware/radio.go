package firmware

import (
	"net/netip"
	"sync"
)

// Radio is the wireless device behind the wifi calls.
type Radio interface {
	Mode() uint32
	SetMode(mode uint32) bool
	Channel() uint32
	Connected() bool
	// Begin starts a station join and returns whether the request was taken.
	// Association completes later; Connected reports it.
	Begin(ssid, password string, channel uint32) bool
	LocalIP() netip.Addr
}

// Radio modes, matching the values the guest sees.
const (
	ModeNull      uint32 = 0
	ModeStation   uint32 = 1
	ModeAP        uint32 = 2
	ModeAPStation uint32 = 3
)

// Network is the one access point a SimRadio can join.
type Network struct {
	SSID     string
	Password string
	Channel  uint32
	Addr     netip.Addr
	// JoinPolls is how many Connected queries report false after a
	// successful Begin before association completes.
	JoinPolls int
}

// SimRadio associates with a single configured network.
type SimRadio struct {
	mu        sync.Mutex
	network   Network
	mode      uint32
	channel   uint32
	joining   bool
	matched   bool
	pending   int
	connected bool
}

func NewSimRadio(network Network) *SimRadio {
	ch := network.Channel
	if ch == 0 {
		ch = 1
	}
	network.Channel = ch
	return &SimRadio{network: network, channel: ch}
}

func (r *SimRadio) Mode() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *SimRadio) SetMode(mode uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode > ModeAPStation {
		return false
	}
	r.mode = mode
	if mode == ModeNull || mode == ModeAP {
		r.joining, r.connected = false, false
	}
	return true
}

func (r *SimRadio) Channel() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel
}

func (r *SimRadio) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.joining {
		if r.pending > 0 {
			r.pending--
			return false
		}
		r.joining = false
		r.connected = r.matched
	}
	return r.connected
}

func (r *SimRadio) Begin(ssid, password string, channel uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ssid == "" {
		return false
	}
	if r.mode == ModeNull || r.mode == ModeAP {
		r.mode |= ModeStation
	}
	if channel != 0 {
		r.channel = channel
	}
	r.connected = false
	r.joining = true
	r.pending = max(r.network.JoinPolls, 0)
	r.matched = ssid == r.network.SSID &&
		password == r.network.Password &&
		(channel == 0 || channel == r.network.Channel)
	if r.matched {
		r.channel = r.network.Channel
	}
	return true
}

func (r *SimRadio) LocalIP() netip.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connected {
		return netip.IPv4Unspecified()
	}
	return r.network.Addr
}

// packIPv4 packs a so the first octet lands in the low byte.
func packIPv4(a netip.Addr) uint32 {
	if !a.Is4() {
		return 0
	}
	b := a.As4()
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

package firmware

import (
	"io"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/rvhal/internal/observability"
	"github.com/danmuck/rvhal/internal/trap"
	"github.com/rs/zerolog"
)

// State is the machine run state.
type State int

const (
	StateRunning State = iota
	StateBlocked
	StateExitOK
	StateExitErr
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateExitOK:
		return "exit_ok"
	case StateExitErr:
		return "exit_err"
	default:
		return "unknown"
	}
}

// Exited reports whether the guest has called exit.
func (s State) Exited() bool {
	return s == StateExitOK || s == StateExitErr
}

// Config assembles a Machine.
type Config struct {
	Name       string
	RAMSize    uint32
	ListenHost string
	// AcceptWait bounds how long accept looks for a pending connection
	// before answering with trap.NoHandle.
	AcceptWait time.Duration
	Console    io.Writer
	Radio      Radio
	Clock      Clock
	Logger     zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		Name:       "rvhal",
		RAMSize:    DefaultRAMSize,
		ListenHost: "127.0.0.1",
		AcceptWait: 10 * time.Millisecond,
		Console:    io.Discard,
		Clock:      WallClock{Scale: 1},
		Logger:     zerolog.Nop(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if strings.TrimSpace(c.Name) == "" {
		c.Name = d.Name
	}
	if c.RAMSize == 0 {
		c.RAMSize = d.RAMSize
	}
	if strings.TrimSpace(c.ListenHost) == "" {
		c.ListenHost = d.ListenHost
	}
	if c.AcceptWait <= 0 {
		c.AcceptWait = d.AcceptWait
	}
	if c.Console == nil {
		c.Console = d.Console
	}
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Radio == nil {
		c.Radio = NewSimRadio(Network{})
	}
	return c
}

// Machine is a simulated firmware instance. Traps are serialized; a guest
// pairing Addr with Trap from several goroutines must serialize itself.
type Machine struct {
	mu    sync.Mutex
	cfg   Config
	log   zerolog.Logger
	mem   *memory
	files table
	state State
	code  uint32
	calls uint64
}

var _ trap.Gate = (*Machine)(nil)

func New(cfg Config) *Machine {
	cfg = cfg.withDefaults()
	return &Machine{
		cfg: cfg,
		log: cfg.Logger.With().Str("machine", cfg.Name).Logger(),
		mem: newMemory(cfg.RAMSize),
	}
}

// Addr maps a borrowed client buffer into guest RAM for the next trap.
func (m *Machine) Addr(b []byte) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mem.borrow(b)
}

// Trap handles one call. On success f.Num is 0 and f.A0 the return value;
// on a fault f.Num carries the error code and f.A0 is left untouched. Once
// the guest has exited every call faults with trap.NoHandle.
func (m *Machine) Trap(f *trap.Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.mem.release()

	start := time.Now()
	num := trap.Number(f.Num)
	if m.state.Exited() {
		m.log.Warn().Str("call", num.String()).Str("state", m.state.String()).Msg("call after exit")
		f.Num = trap.NoHandle
		observability.RecordFirmwareCall(m.cfg.Name, num.String(), true, time.Since(start))
		return
	}
	retval, fault := m.dispatch(num, f)
	if fault {
		f.Num = retval
	} else {
		f.A0 = retval
		f.Num = 0
	}
	m.calls++

	observability.RecordFirmwareCall(m.cfg.Name, num.String(), fault, time.Since(start))
	m.log.Trace().
		Str("call", num.String()).
		Uint32("a0", f.A0).
		Uint32("status", f.Num).
		Bool("fault", fault).
		Msg("trap")
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ExitCode is the code passed to exit, meaningful once State().Exited().
func (m *Machine) ExitCode() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code
}

// Close releases every descriptor still held by the guest.
func (m *Machine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files.releaseAll()
	observability.SetOpenDescriptors(m.cfg.Name, 0)
	return nil
}

// RadioStatus is the radio as the inspector reports it.
type RadioStatus struct {
	Mode      uint32 `json:"mode"`
	Channel   uint32 `json:"channel"`
	Connected bool   `json:"connected"`
	Addr      string `json:"addr"`
}

// Snapshot is a point-in-time view of the machine.
type Snapshot struct {
	Name        string           `json:"name"`
	State       string           `json:"state"`
	ExitCode    uint32           `json:"exit_code"`
	Calls       uint64           `json:"calls"`
	RAMSize     uint32           `json:"ram_size"`
	Radio       RadioStatus      `json:"radio"`
	Descriptors []DescriptorInfo `json:"descriptors"`
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Name:        m.cfg.Name,
		State:       m.state.String(),
		ExitCode:    m.code,
		Calls:       m.calls,
		RAMSize:     m.mem.size(),
		Radio:       m.radioStatus(),
		Descriptors: m.files.snapshot(),
	}
}

// radioStatus reads the radio without advancing a pending join.
func (m *Machine) radioStatus() RadioStatus {
	r := m.cfg.Radio
	addr := r.LocalIP()
	return RadioStatus{
		Mode:      r.Mode(),
		Channel:   r.Channel(),
		Connected: addr.IsValid() && addr != netip.IPv4Unspecified(),
		Addr:      addr.String(),
	}
}

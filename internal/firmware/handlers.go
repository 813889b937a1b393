package firmware

import (
	"errors"
	"time"

	"github.com/danmuck/rvhal/internal/observability"
	"github.com/danmuck/rvhal/internal/trap"
)

const (
	ssidMax     = 67
	passwordMax = 32
)

// handler returns the value for a0, or the error code for a7 when fault is
// set. retval starts out as the call number, so faults that do not pick a
// code report the call itself.
type handler func(m *Machine, f *trap.Frame, retval uint32) (uint32, bool)

var handlers = map[trap.Number]handler{
	trap.Exit:    sysExit,
	trap.Print:   sysPrint,
	trap.Compare: sysCompare,
	trap.Memset:  sysMemset,
	trap.Delay:   sysDelay,

	trap.WiFiGetMode:        sysWiFiGetMode,
	trap.WiFiSetMode:        sysWiFiSetMode,
	trap.WiFiGetChannel:     sysWiFiGetChannel,
	trap.WiFiIsConnected:    sysWiFiIsConnected,
	trap.WiFiConnectStation: sysWiFiConnectStation,
	trap.WiFiIPv4:           sysWiFiIPv4,

	trap.Close:  sysClose,
	trap.Write:  sysWrite,
	trap.Listen: sysListen,
	trap.Accept: sysAccept,
}

func (m *Machine) dispatch(num trap.Number, f *trap.Frame) (uint32, bool) {
	h, ok := handlers[num]
	if !ok {
		m.log.Warn().Str("call", num.String()).Msg("unknown firmware call")
		return trap.NoHandle, true
	}
	return h(m, f, uint32(num))
}

func boolValue(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// exit(code)
func sysExit(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	m.code = f.A0
	if f.A0 != 0 {
		m.state = StateExitErr
	} else {
		m.state = StateExitOK
	}
	m.log.Info().Uint32("code", f.A0).Msg("guest exit")
	return retval, false
}

// print(ptr, len)
func sysPrint(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	if m.mem.oob(f.A0, f.A1) {
		return trap.NoHandle, true
	}
	if _, err := m.cfg.Console.Write(m.mem.load(f.A0, f.A1)); err != nil {
		m.log.Warn().Err(err).Msg("console write failed")
	}
	return retval, false
}

// compare(ptr_a, ptr_b, n) -> strncmp result
func sysCompare(m *Machine, f *trap.Frame, _ uint32) (uint32, bool) {
	if m.mem.oob(f.A0, f.A2) || m.mem.oob(f.A1, f.A2) {
		return trap.NoHandle, true
	}
	return uint32(m.mem.strncmp(f.A0, f.A1, f.A2)), false
}

// memset(ptr, len, byte)
func sysMemset(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	if m.mem.oob(f.A0, f.A1) {
		return trap.NoHandle, true
	}
	b := m.mem.load(f.A0, f.A1)
	for i := range b {
		b[i] = byte(f.A2)
	}
	return retval, false
}

// delay(ms). The machine lock is dropped while blocked so the state stays
// observable.
func sysDelay(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	m.state = StateBlocked
	m.mu.Unlock()
	m.cfg.Clock.Sleep(time.Duration(f.A0) * time.Millisecond)
	m.mu.Lock()
	m.state = StateRunning
	return retval, false
}

func sysWiFiGetMode(m *Machine, _ *trap.Frame, _ uint32) (uint32, bool) {
	return m.cfg.Radio.Mode(), false
}

func sysWiFiSetMode(m *Machine, f *trap.Frame, _ uint32) (uint32, bool) {
	return boolValue(m.cfg.Radio.SetMode(f.A0)), false
}

func sysWiFiGetChannel(m *Machine, _ *trap.Frame, _ uint32) (uint32, bool) {
	return m.cfg.Radio.Channel(), false
}

func sysWiFiIsConnected(m *Machine, _ *trap.Frame, _ uint32) (uint32, bool) {
	return boolValue(m.cfg.Radio.Connected()), false
}

// connect_station(ssid_ptr, ssid_len, pwd_ptr, pwd_len, channel)
func sysWiFiConnectStation(m *Machine, f *trap.Frame, _ uint32) (uint32, bool) {
	ssidAddr, ssidLen := f.A0, f.A1
	pwdAddr, pwdLen := f.A2, f.A3
	channel := uint32(uint8(f.A4))

	if m.mem.oob(ssidAddr, ssidLen) || m.mem.oob(pwdAddr, pwdLen) ||
		ssidLen > ssidMax || pwdLen > passwordMax {
		return trap.NoHandle, true
	}
	ssid := m.mem.cstring(ssidAddr, ssidLen)
	pwd := m.mem.cstring(pwdAddr, pwdLen)
	ok := m.cfg.Radio.Begin(ssid, pwd, channel)
	m.log.Info().Str("ssid", ssid).Uint32("channel", channel).Bool("accepted", ok).Msg("station join")
	return boolValue(ok), false
}

func sysWiFiIPv4(m *Machine, _ *trap.Frame, _ uint32) (uint32, bool) {
	return packIPv4(m.cfg.Radio.LocalIP()), false
}

// close(fd)
func sysClose(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	s, ok := m.files.get(f.A0)
	if !ok || s.kind == slotFree {
		return retval, true
	}
	if err := m.files.release(f.A0); err != nil {
		m.log.Debug().Err(err).Uint32("fd", f.A0).Msg("close")
	}
	observability.SetOpenDescriptors(m.cfg.Name, m.files.open())
	return 0, false
}

// write(fd, ptr, len) -> bytes written
func sysWrite(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	s, ok := m.files.get(f.A0)
	if !ok || m.mem.oob(f.A1, f.A2) || s.kind != slotClient {
		return retval, true
	}
	n, err := s.client.Write(m.mem.load(f.A1, f.A2))
	if err != nil {
		m.log.Debug().Err(err).Uint32("fd", f.A0).Int("written", n).Msg("write")
	}
	return uint32(n), false
}

// listen(port) -> fd
func sysListen(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	fd, ok := m.files.free()
	if !ok {
		return retval, true
	}
	if err := m.files.listen(fd, m.cfg.ListenHost, f.A0); err != nil {
		m.log.Warn().Err(err).Uint32("port", f.A0).Msg("listen")
		return trap.NoHandle, true
	}
	observability.SetOpenDescriptors(m.cfg.Name, m.files.open())
	m.log.Info().Uint32("fd", fd).Uint32("port", f.A0).Msg("listening")
	return fd, false
}

// accept(fd) -> fd, or all-ones when nothing is pending
func sysAccept(m *Machine, f *trap.Frame, retval uint32) (uint32, bool) {
	cfd, free := m.files.free()
	s, ok := m.files.get(f.A0)
	if !free || !ok || s.kind != slotServer {
		return retval, true
	}
	if err := m.files.accept(s, cfd, m.cfg.AcceptWait); err != nil {
		if errors.Is(err, errNothingPending) {
			return trap.NoHandle, false
		}
		m.log.Warn().Err(err).Uint32("fd", f.A0).Msg("accept")
		return trap.NoHandle, true
	}
	observability.SetOpenDescriptors(m.cfg.Name, m.files.open())
	m.log.Debug().Uint32("listener", f.A0).Uint32("fd", cfd).Msg("accepted")
	return cfd, false
}

package demo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/rvhal/internal/firmware"
	"github.com/danmuck/rvhal/internal/hal"
	"github.com/danmuck/rvhal/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

type noSleep struct{}

func (noSleep) Now() time.Time      { return time.Unix(0, 0) }
func (noSleep) Sleep(time.Duration) {}

func newMachine(t *testing.T, console io.Writer, network firmware.Network) *firmware.Machine {
	t.Helper()
	testlog.Start(t)
	m := firmware.New(firmware.Config{
		Name:       "demo-" + t.Name(),
		AcceptWait: 5 * time.Millisecond,
		Console:    console,
		Clock:      noSleep{},
		Radio:      firmware.NewSimRadio(network),
		Logger:     log.Logger,
	})
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func waitListener(t *testing.T, m *firmware.Machine) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, d := range m.Snapshot().Descriptors {
			if d.Kind == "server" {
				return d.Local
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("guest never listened")
	return ""
}

func TestRunJoinsAndGreetsClients(t *testing.T) {
	console := &bytes.Buffer{}
	m := newMachine(t, console, firmware.Network{
		SSID:      "lab",
		Password:  "secret",
		Addr:      netip.MustParseAddr("192.168.0.10"),
		JoinPolls: 2,
	})

	cfg := DefaultConfig()
	cfg.SSID = "lab"
	cfg.Password = "secret"
	cfg.Port = 0
	cfg.MaxConnections = 2

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), hal.New(m), cfg)
	}()

	addr := waitListener(t, m)
	for i := 0; i < 2; i++ {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		got, err := io.ReadAll(conn)
		conn.Close()
		if err != nil || string(got) != "hi" {
			t.Fatalf("client %d: got %q err=%v", i, got, err)
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not finish")
	}

	out := console.String()
	if !strings.HasPrefix(out, "hi!\nconnecting.....\n") {
		t.Fatalf("unexpected join output: %q", out)
	}
	if !strings.Contains(out, "Connected. local IP = 192.168.0.10\n") {
		t.Fatalf("missing address line: %q", out)
	}
	if m.State() != firmware.StateExitOK {
		t.Fatalf("unexpected state: %s", m.State())
	}
	if n := len(m.Snapshot().Descriptors); n != 0 {
		t.Fatalf("guest leaked %d descriptors", n)
	}
	testlog.Logf("demo: console=%q", out)
}

func TestRunGivesUpAfterMaxPolls(t *testing.T) {
	console := &bytes.Buffer{}
	m := newMachine(t, console, firmware.Network{SSID: "lab", Password: "secret"})

	cfg := DefaultConfig()
	cfg.SSID = "lab"
	cfg.Password = "wrong"
	cfg.MaxPolls = 3

	err := Run(context.Background(), hal.New(m), cfg)
	if !errors.Is(err, ErrJoinTimeout) {
		t.Fatalf("expected ErrJoinTimeout, got %v", err)
	}
	if m.State() != firmware.StateExitErr || m.ExitCode() != 1 {
		t.Fatalf("unexpected exit: state=%s code=%d", m.State(), m.ExitCode())
	}
}

func TestRunStopsServingOnCancel(t *testing.T) {
	m := newMachine(t, io.Discard, firmware.Network{SSID: "lab"})

	cfg := DefaultConfig()
	cfg.SSID = "lab"
	cfg.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, hal.New(m), cfg)
	}()
	waitListener(t, m)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run ignored cancellation")
	}
	if m.State() != firmware.StateExitOK {
		t.Fatalf("unexpected state: %s", m.State())
	}
}

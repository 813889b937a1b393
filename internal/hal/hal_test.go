package hal

import (
	"errors"
	"testing"

	"github.com/danmuck/rvhal/internal/trap"
)

func TestPrintEncodesPointerAndLengthAndDropsStatus(t *testing.T) {
	g := newScriptGate(t, failReply(0xFFFFFFFF))
	c := New(g)

	c.Print("hello")
	f := g.last()
	if trap.Number(f.Num) != trap.Print || f.A1 != 5 {
		t.Fatalf("unexpected frame: %+v", f)
	}
	if g.buf(f.A0) != "hello" {
		t.Fatalf("unexpected buffer: %q", g.buf(f.A0))
	}
}

func TestDelayAndExitEncodeOneScalar(t *testing.T) {
	g := newScriptGate(t, failReply(7), okReply(0), failReply(9))
	c := New(g)

	c.Delay(500)
	if f := g.last(); trap.Number(f.Num) != trap.Delay || f.A0 != 500 {
		t.Fatalf("unexpected delay frame: %+v", f)
	}

	if err := c.Exit(0); err != nil {
		t.Fatalf("exit: %v", err)
	}
	if f := g.last(); trap.Number(f.Num) != trap.Exit || f.A0 != 0 {
		t.Fatalf("unexpected exit frame: %+v", f)
	}

	err := c.Exit(1)
	var se *trap.StatusError
	if !errors.As(err, &se) || se.Status != 9 || se.Num != trap.Exit {
		t.Fatalf("expected exit status surfaced, got %v", err)
	}
}

func TestCompareUsesShorterLength(t *testing.T) {
	g := newScriptGate(t, okReply(uint32(0xFFFFFFFE)), failReply(1))
	c := New(g)

	got, err := c.Compare("abcdef", "abd")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if got != -2 {
		t.Fatalf("expected signed result -2, got %d", got)
	}
	f := g.last()
	if trap.Number(f.Num) != trap.Compare || f.A2 != 3 {
		t.Fatalf("unexpected compare frame: %+v", f)
	}
	if g.buf(f.A0) != "abcdef" || g.buf(f.A1) != "abd" {
		t.Fatalf("unexpected buffers: %q %q", g.buf(f.A0), g.buf(f.A1))
	}

	if _, err := c.Compare("a", "b"); err == nil {
		t.Fatalf("expected firmware failure surfaced instead of trusted")
	}
}

func TestConsoleWritesEachFragment(t *testing.T) {
	g := newScriptGate(t, okReply(1), okReply(1))
	console := New(g).Console()

	n, err := console.Write([]byte("frag"))
	if err != nil || n != 4 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	console.Printf("ip=%d", 10)
	if len(g.frames) != 2 {
		t.Fatalf("expected one print per fragment, got %d", len(g.frames))
	}
	if got := g.buf(g.last().A0); got != "ip=10" {
		t.Fatalf("unexpected formatted output: %q", got)
	}
}

func TestDefaultClientUnavailableOffTarget(t *testing.T) {
	c, err := Default()
	if _, nerr := trap.Native(); nerr != nil {
		if !errors.Is(err, trap.ErrNoNativeGate) || c != nil {
			t.Fatalf("expected ErrNoNativeGate, got c=%v err=%v", c, err)
		}
		return
	}
	if err != nil || c == nil {
		t.Fatalf("expected native client, got err=%v", err)
	}
}

package hal

import (
	"errors"
	"io"
	"reflect"
	"sync"
	"testing"

	"github.com/danmuck/rvhal/internal/trap"
)

func TestListenFailureMapsToErrListen(t *testing.T) {
	g := newScriptGate(t, failReply(0x140))
	_, err := New(g).Listen(8080)
	if !errors.Is(err, ErrListen) {
		t.Fatalf("expected ErrListen, got %v", err)
	}
	var se *trap.StatusError
	if !errors.As(err, &se) || se.Status != 0x140 {
		t.Fatalf("expected raw status kept, got %v", err)
	}
}

func TestWriteEncodesHandlePointerLength(t *testing.T) {
	g := newScriptGate(t, okReply(3), okReply(2))
	l, err := New(g).Listen(8080)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	n, err := l.WriteString("hi")
	if err != nil || n != 2 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	f := g.last()
	if trap.Number(f.Num) != trap.Write || f.A0 != 3 || f.A2 != 2 {
		t.Fatalf("unexpected write frame: %+v", f)
	}
	if g.buf(f.A1) != "hi" {
		t.Fatalf("unexpected payload: %q", g.buf(f.A1))
	}
}

func TestWriteShortCountAndFailure(t *testing.T) {
	g := newScriptGate(t, okReply(4), okReply(1), failReply(0x131))
	d, _ := New(g).Listen(1)

	n, err := d.Write([]byte("abc"))
	if n != 1 || !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("expected short write count 1, got n=%d err=%v", n, err)
	}
	if _, err := d.Write([]byte("abc")); !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestWriteRejectsCountAboveLength(t *testing.T) {
	g := newScriptGate(t, okReply(4), okReply(10))
	d, _ := New(g).Listen(1)

	n, err := d.WriteString("hi")
	if n != 0 || !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite for count 10 of 2, got n=%d err=%v", n, err)
	}
}

func TestAcceptSentinelIsNotAHandle(t *testing.T) {
	g := newScriptGate(t, okReply(3), okReply(trap.NoHandle), failReply(0x141), okReply(5))
	l, _ := New(g).Listen(8080)

	c, err := l.Accept()
	if !errors.Is(err, ErrNoConnection) || c != nil {
		t.Fatalf("expected ErrNoConnection, got c=%v err=%v", c, err)
	}
	if f := g.last(); trap.Number(f.Num) != trap.Accept || f.A0 != 3 {
		t.Fatalf("unexpected accept frame: %+v", f)
	}

	if _, err := l.Accept(); !errors.Is(err, ErrAccept) {
		t.Fatalf("expected ErrAccept, got %v", err)
	}

	c, err = l.Accept()
	if err != nil || c.ID() != 5 {
		t.Fatalf("expected handle 5, got c=%v err=%v", c, err)
	}
}

func TestCloseConsumesHandleEvenOnFailure(t *testing.T) {
	g := newScriptGate(t, okReply(3), failReply(0x130))
	d, _ := New(g).Listen(8080)

	err := d.Close()
	var se *trap.StatusError
	if !errors.As(err, &se) || se.Status != 0x130 {
		t.Fatalf("expected close status reported, got %v", err)
	}
	if !d.Closed() {
		t.Fatalf("handle must be consumed after close")
	}

	traps := len(g.frames)
	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on second close, got %v", err)
	}
	if _, err := d.Write([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on write, got %v", err)
	}
	if _, err := d.Accept(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed on accept, got %v", err)
	}
	if len(g.frames) != traps {
		t.Fatalf("closed handle reached the firmware: %d traps", len(g.frames)-traps)
	}
}

func TestListenAcceptWriteCloseRoundTrip(t *testing.T) {
	g := newScriptGate(t,
		okReply(3), // listen
		okReply(5), // accept
		okReply(2), // write
		okReply(0), // close 5
		okReply(0), // close 3
	)
	c := New(g)

	l, err := c.Listen(8080)
	if err != nil || l.ID() != 3 {
		t.Fatalf("listen: id=%v err=%v", l, err)
	}
	if f := g.last(); trap.Number(f.Num) != trap.Listen || f.A0 != 8080 {
		t.Fatalf("unexpected listen frame: %+v", f)
	}

	conn, err := l.Accept()
	if err != nil || conn.ID() != 5 {
		t.Fatalf("accept: %v", err)
	}
	if n, err := conn.WriteString("hi"); err != nil || n != 2 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close 5: %v", err)
	}
	if f := g.last(); trap.Number(f.Num) != trap.Close || f.A0 != 5 {
		t.Fatalf("unexpected close frame: %+v", f)
	}
	if l.Closed() {
		t.Fatalf("closing the child must not close the listener")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close 3: %v", err)
	}
	if f := g.last(); f.A0 != 3 {
		t.Fatalf("unexpected close frame: %+v", f)
	}

	if _, err := conn.WriteString("again"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected no operation on 5 after close, got %v", err)
	}
	if _, err := l.Accept(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected no operation on 3 after close, got %v", err)
	}
	if len(g.replies) != 0 {
		t.Fatalf("unused replies: %d", len(g.replies))
	}
}

func TestDescriptorCarriesCopyGuard(t *testing.T) {
	typ := reflect.TypeOf((*Descriptor)(nil)).Elem()
	locker := reflect.TypeOf((*sync.Locker)(nil)).Elem()
	for i := 0; i < typ.NumField(); i++ {
		if reflect.PointerTo(typ.Field(i).Type).Implements(locker) {
			return
		}
	}
	t.Fatalf("Descriptor has no field vet can flag on copy")
}

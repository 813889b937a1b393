package hal

import (
	"fmt"
	"io"
	"runtime"

	"github.com/danmuck/rvhal/internal/trap"
)

// Descriptor is an owned handle to one open stream in the firmware's
// descriptor table. Close consumes it: afterwards every method returns
// ErrClosed without reaching the firmware, so the identifier is never used
// again by this client.
//
// A Descriptor is not safe for concurrent use. Pass the pointer along to
// transfer ownership; never copy the struct. go vet reports copies.
type Descriptor struct {
	_      noCopy
	c      *Client
	id     uint32
	closed bool
}

// noCopy trips go vet's copylocks check when embedded in a struct that is
// copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

var (
	_ io.Writer = (*Descriptor)(nil)
	_ io.Closer = (*Descriptor)(nil)
)

// Listen opens a listening descriptor on port.
func (c *Client) Listen(port uint32) (*Descriptor, error) {
	id, err := trap.Call1(c.gate, trap.Listen, port).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("%w: port=%d: %w", ErrListen, port, err)
	}
	return &Descriptor{c: c, id: id}, nil
}

// ID returns the raw firmware identifier.
func (d *Descriptor) ID() uint32 {
	return d.id
}

// Closed reports whether Close has consumed the handle.
func (d *Descriptor) Closed() bool {
	return d.closed
}

// Write sends p and returns the byte count the firmware accepted, unchanged.
// A short count is reported with io.ErrShortWrite. A count above len(p) is
// not a valid answer and fails with ErrWrite.
func (d *Descriptor) Write(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	res := trap.Call3(d.c.gate, trap.Write, d.id, d.c.gate.Addr(p), trap.Len(p))
	runtime.KeepAlive(p)
	n, err := res.Unwrap()
	if err != nil {
		return 0, fmt.Errorf("%w: fd=%d: %w", ErrWrite, d.id, err)
	}
	if uint64(n) > uint64(len(p)) {
		return 0, fmt.Errorf("%w: fd=%d: firmware reported %d of %d bytes", ErrWrite, d.id, n, len(p))
	}
	if int(n) < len(p) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}

// WriteString is Write for string data without a copy.
func (d *Descriptor) WriteString(s string) (int, error) {
	return d.Write(trap.StringBytes(s))
}

// Accept returns the next pending connection on a listening descriptor as a
// new, independent handle. ErrNoConnection means the firmware had nothing
// pending.
func (d *Descriptor) Accept() (*Descriptor, error) {
	if d.closed {
		return nil, ErrClosed
	}
	id, err := trap.Call1(d.c.gate, trap.Accept, d.id).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("%w: fd=%d: %w", ErrAccept, d.id, err)
	}
	if id == trap.NoHandle {
		return nil, ErrNoConnection
	}
	return &Descriptor{c: d.c, id: id}, nil
}

// Close releases the descriptor. The handle is consumed even when the
// firmware reports a failure; that status is returned for inspection only.
func (d *Descriptor) Close() error {
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	_, err := trap.Call1(d.c.gate, trap.Close, d.id).Unwrap()
	return err
}

package hal

import (
	"runtime"
	"sync"

	"github.com/danmuck/rvhal/internal/trap"
)

// Client issues typed firmware calls through one gate. It holds no state
// besides the gate: every call talks to "the" firmware.
type Client struct {
	gate trap.Gate
}

// New binds a client to g.
func New(g trap.Gate) *Client {
	return &Client{gate: g}
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
	defaultErr    error
)

// Default returns the client bound to the native trap gate.
func Default() (*Client, error) {
	defaultOnce.Do(func() {
		g, err := trap.Native()
		if err != nil {
			defaultErr = err
			return
		}
		defaultClient = New(g)
	})
	return defaultClient, defaultErr
}

// Print writes text to the firmware console. Failures are dropped; the
// console is the only diagnostic channel there is.
func (c *Client) Print(text string) {
	c.PrintBytes(trap.StringBytes(text))
}

// PrintBytes writes b to the firmware console as-is.
func (c *Client) PrintBytes(b []byte) {
	trap.Call2(c.gate, trap.Print, c.gate.Addr(b), trap.Len(b))
	runtime.KeepAlive(b)
}

// Delay blocks for ms milliseconds of firmware time.
func (c *Client) Delay(ms uint32) {
	trap.Call1(c.gate, trap.Delay, ms)
}

// Exit asks the firmware to stop the program. On hardware it does not
// return; if it does, the mapped status is reported.
func (c *Client) Exit(code uint32) error {
	_, err := trap.Call1(c.gate, trap.Exit, code).Unwrap()
	return err
}

// Compare compares a and b over the length of the shorter one only and
// returns the firmware's signed result. Strings that differ only in length
// compare equal; callers needing a total order must also compare lengths.
func (c *Client) Compare(a, b string) (int32, error) {
	ab, bb := trap.StringBytes(a), trap.StringBytes(b)
	n := min(len(ab), len(bb))
	res := trap.Call3(c.gate, trap.Compare, c.gate.Addr(ab), c.gate.Addr(bb), uint32(n))
	runtime.KeepAlive(ab)
	runtime.KeepAlive(bb)
	v, err := res.Unwrap()
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}

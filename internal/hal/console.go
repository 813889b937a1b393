package hal

import (
	"fmt"
	"io"
)

// Console is the "write these bytes" hook formatting code plugs into.
type Console struct {
	c *Client
}

var _ io.Writer = Console{}

// Console returns the firmware console as an io.Writer.
func (c *Client) Console() Console {
	return Console{c: c}
}

// Write prints p in one call. The firmware status is not observed, so the
// full length is always reported.
func (w Console) Write(p []byte) (int, error) {
	w.c.PrintBytes(p)
	return len(p), nil
}

// Printf formats into the console, one print call per fragment fmt emits.
func (w Console) Printf(format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}

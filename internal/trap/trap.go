package trap

import (
	"errors"
	"fmt"
	"math"
	"unsafe"
)

var ErrNoNativeGate = errors.New("trap: no native gate for this architecture")

// Frame is the register set sent to and received from the firmware.
//
// Num carries the call number in and the status out. A0 carries the first
// argument in and the success value out. A1..A4 are inputs only.
type Frame struct {
	Num uint32
	A0  uint32
	A1  uint32
	A2  uint32
	A3  uint32
	A4  uint32
}

// Gate transfers control to the firmware.
type Gate interface {
	// Trap blocks until the firmware returns, overwriting f.Num and f.A0.
	Trap(f *Frame)
	// Addr returns the address the firmware uses to read b. The caller keeps
	// ownership; b must stay live and unmodified until the next Trap returns.
	Addr(b []byte) uint32
}

// Result is the raw (status, value) pair left in the frame after a trap.
type Result struct {
	Num    Number
	Status uint32
	Value  uint32
}

// OK reports whether the firmware signalled success.
func (r Result) OK() bool {
	return r.Status == 0
}

// Unwrap maps status 0 to the value and any other status to *StatusError.
func (r Result) Unwrap() (uint32, error) {
	if r.Status != 0 {
		return 0, &StatusError{Num: r.Num, Status: r.Status}
	}
	return r.Value, nil
}

// StatusError is a non-zero firmware status. The code is opaque at this layer.
type StatusError struct {
	Num    Number
	Status uint32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("trap: %s failed status=0x%x", e.Num, e.Status)
}

// Call1 issues num with a single argument slot populated.
func Call1(g Gate, num Number, a0 uint32) Result {
	return call(g, Frame{Num: uint32(num), A0: a0})
}

// Call2 issues num with two argument slots populated.
func Call2(g Gate, num Number, a0, a1 uint32) Result {
	return call(g, Frame{Num: uint32(num), A0: a0, A1: a1})
}

// Call3 issues num with three argument slots populated.
func Call3(g Gate, num Number, a0, a1, a2 uint32) Result {
	return call(g, Frame{Num: uint32(num), A0: a0, A1: a1, A2: a2})
}

// Call5 issues num with every argument slot populated.
func Call5(g Gate, num Number, a0, a1, a2, a3, a4 uint32) Result {
	return call(g, Frame{Num: uint32(num), A0: a0, A1: a1, A2: a2, A3: a3, A4: a4})
}

func call(g Gate, f Frame) Result {
	num := Number(f.Num)
	g.Trap(&f)
	return Result{Num: num, Status: f.Num, Value: f.A0}
}

// StringBytes views s as bytes without copying. The result must not be
// written to.
func StringBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// guestAddr narrows a pointer to the 32-bit slot the firmware reads. A wider
// address would name a different buffer, so it panics instead.
func guestAddr(p uintptr) uint32 {
	if uint64(p) > math.MaxUint32 {
		panic(fmt.Sprintf("trap: address 0x%x outside the 32-bit guest space", uint64(p)))
	}
	return uint32(p)
}

// Len packs a buffer length into a 32-bit slot.
func Len(b []byte) uint32 {
	return uint32(len(b))
}

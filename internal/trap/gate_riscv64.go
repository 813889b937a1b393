//go:build tamago && riscv64

package trap

import "unsafe"

// ecall loads a7 and a0..a4, executes ECALL and returns a7 and a0.
// Implemented in gate_riscv64.s.
func ecall(num, a0, a1, a2, a3, a4 uintptr) (status, value uintptr)

type nativeGate struct{}

// Native returns the gate backed by the ECALL instruction. Only the
// freestanding tamago target gets one; on riscv64 Linux ECALL is a kernel
// syscall with a different number table.
func Native() (Gate, error) {
	return nativeGate{}, nil
}

func (nativeGate) Trap(f *Frame) {
	status, value := ecall(
		uintptr(f.Num),
		uintptr(f.A0),
		uintptr(f.A1),
		uintptr(f.A2),
		uintptr(f.A3),
		uintptr(f.A4),
	)
	f.Num = uint32(status)
	f.A0 = uint32(value)
}

// Addr returns the buffer address. It panics if b lives above 4 GiB.
func (nativeGate) Addr(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	return guestAddr(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}

//go:build !(tamago && riscv64)

package trap

// Native is unavailable off-target, riscv64 Linux included. Use a simulated
// gate instead.
func Native() (Gate, error) {
	return nil, ErrNoNativeGate
}

package firmware

// Guest RAM layout: the low page is reserved, borrowed client buffers are
// copied in from StartAddr upwards and the region is reset after every trap.
const (
	StartAddr      uint32 = 0x400
	DefaultRAMSize uint32 = 64 * 1024
)

type memory struct {
	ram     []byte
	scratch uint32
}

func newMemory(size uint32) *memory {
	if size <= StartAddr {
		size = DefaultRAMSize
	}
	return &memory{ram: make([]byte, size), scratch: StartAddr}
}

func (m *memory) size() uint32 {
	return uint32(len(m.ram))
}

// oob reports whether [addr, addr+n) leaves guest RAM.
func (m *memory) oob(addr, n uint32) bool {
	return uint64(addr)+uint64(n) > uint64(len(m.ram))
}

// borrow copies b into scratch space and returns its guest address. A buffer
// that does not fit gets the first address past RAM, so the handler faults
// the same way real firmware does on an out-of-range pointer.
func (m *memory) borrow(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	if m.oob(m.scratch, uint32(len(b))) {
		return m.size()
	}
	addr := m.scratch
	copy(m.ram[addr:], b)
	m.scratch += uint32(len(b))
	return addr
}

func (m *memory) release() {
	clear(m.ram[StartAddr:m.scratch])
	m.scratch = StartAddr
}

// load returns the guest bytes at [addr, addr+n). Callers check oob first.
func (m *memory) load(addr, n uint32) []byte {
	return m.ram[addr : addr+n]
}

// cstring returns at most n bytes at addr, stopping at the first NUL.
func (m *memory) cstring(addr, n uint32) string {
	b := m.load(addr, n)
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// strncmp compares at most n bytes at a1 and a2 with C semantics.
func (m *memory) strncmp(a1, a2, n uint32) int32 {
	x, y := m.load(a1, n), m.load(a2, n)
	for i := range x {
		if x[i] != y[i] {
			return int32(x[i]) - int32(y[i])
		}
		if x[i] == 0 {
			return 0
		}
	}
	return 0
}

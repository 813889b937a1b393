package hal

import (
	"testing"

	"github.com/danmuck/rvhal/internal/trap"
)

type reply struct {
	status uint32
	value  uint32
}

// scriptGate answers traps from a queue and records what it was sent.
type scriptGate struct {
	t       *testing.T
	replies []reply
	frames  []trap.Frame
	bufs    map[uint32][]byte
	next    uint32
}

func newScriptGate(t *testing.T, replies ...reply) *scriptGate {
	return &scriptGate{t: t, replies: replies, bufs: make(map[uint32][]byte), next: 0x1000}
}

func (g *scriptGate) Trap(f *trap.Frame) {
	g.frames = append(g.frames, *f)
	if len(g.replies) == 0 {
		g.t.Fatalf("unexpected trap: %+v", *f)
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	f.Num = r.status
	if r.status == 0 {
		f.A0 = r.value
	}
}

func (g *scriptGate) Addr(b []byte) uint32 {
	addr := g.next
	g.next += 0x1000
	g.bufs[addr] = append([]byte(nil), b...)
	return addr
}

func (g *scriptGate) last() trap.Frame {
	g.t.Helper()
	if len(g.frames) == 0 {
		g.t.Fatalf("no trap issued")
	}
	return g.frames[len(g.frames)-1]
}

func (g *scriptGate) buf(addr uint32) string {
	return string(g.bufs[addr])
}

func okReply(v uint32) reply { return reply{value: v} }

func failReply(s uint32) reply { return reply{status: s} }

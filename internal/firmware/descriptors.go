package firmware

import (
	"errors"
	"net"
	"os"
	"strconv"
	"time"
)

// MaxDescriptors is the size of the firmware descriptor table.
const MaxDescriptors = 32

type slotKind int

const (
	slotFree slotKind = iota
	slotServer
	slotClient
)

func (k slotKind) String() string {
	switch k {
	case slotServer:
		return "server"
	case slotClient:
		return "client"
	default:
		return "free"
	}
}

type slot struct {
	kind   slotKind
	server *net.TCPListener
	client net.Conn
}

// DescriptorInfo describes one occupied slot.
type DescriptorInfo struct {
	ID     uint32 `json:"id"`
	Kind   string `json:"kind"`
	Local  string `json:"local"`
	Remote string `json:"remote,omitempty"`
}

type table struct {
	slots [MaxDescriptors]slot
}

// free returns the lowest unallocated slot.
func (t *table) free() (uint32, bool) {
	for i := range t.slots {
		if t.slots[i].kind == slotFree {
			return uint32(i), true
		}
	}
	return 0, false
}

func (t *table) get(fd uint32) (*slot, bool) {
	if fd >= MaxDescriptors {
		return nil, false
	}
	return &t.slots[fd], true
}

func (t *table) open() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].kind != slotFree {
			n++
		}
	}
	return n
}

func (t *table) listen(fd uint32, host string, port uint32) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10)))
	if err != nil {
		return err
	}
	t.slots[fd] = slot{kind: slotServer, server: ln.(*net.TCPListener)}
	return nil
}

var errNothingPending = errors.New("firmware: no pending connection")

// accept takes one pending connection from a server slot, waiting at most
// wait. It reports errNothingPending when the window passes empty.
func (t *table) accept(server *slot, fd uint32, wait time.Duration) error {
	if wait <= 0 {
		wait = time.Millisecond
	}
	if err := server.server.SetDeadline(time.Now().Add(wait)); err != nil {
		return err
	}
	conn, err := server.server.Accept()
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return errNothingPending
		}
		return err
	}
	t.slots[fd] = slot{kind: slotClient, client: conn}
	return nil
}

func (t *table) release(fd uint32) error {
	s := &t.slots[fd]
	var err error
	switch s.kind {
	case slotServer:
		err = s.server.Close()
	case slotClient:
		err = s.client.Close()
	}
	*s = slot{}
	return err
}

func (t *table) releaseAll() {
	for i := range t.slots {
		_ = t.release(uint32(i))
	}
}

func (t *table) snapshot() []DescriptorInfo {
	out := make([]DescriptorInfo, 0)
	for i, s := range t.slots {
		switch s.kind {
		case slotServer:
			out = append(out, DescriptorInfo{ID: uint32(i), Kind: s.kind.String(), Local: s.server.Addr().String()})
		case slotClient:
			out = append(out, DescriptorInfo{
				ID:     uint32(i),
				Kind:   s.kind.String(),
				Local:  s.client.LocalAddr().String(),
				Remote: s.client.RemoteAddr().String(),
			})
		}
	}
	return out
}

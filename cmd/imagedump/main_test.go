package main

import (
	"bytes"
	"debug/elf"
	"testing"
)

func prog(typ elf.ProgType, vaddr uint64, data []byte) *elf.Prog {
	return &elf.Prog{
		ProgHeader: elf.ProgHeader{Type: typ, Vaddr: vaddr, Filesz: uint64(len(data))},
		ReaderAt:   bytes.NewReader(data),
	}
}

func TestDumpSkipsFirmwareAndNonLoadSegments(t *testing.T) {
	progs := []*elf.Prog{
		prog(elf.PT_LOAD, 0x0, []byte{0xde, 0xad}),
		prog(elf.PT_NOTE, 0x800, []byte{0x01}),
		prog(elf.PT_LOAD, startAddr, []byte{0x13, 0x05, 0xa0}),
		prog(elf.PT_LOAD, 0x1000, nil),
	}

	var out bytes.Buffer
	if err := dump(&out, progs, startAddr); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if got, want := out.String(), "0x13, 0x05, 0xa0, \n"; got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDumpHonorsMinVaddr(t *testing.T) {
	progs := []*elf.Prog{prog(elf.PT_LOAD, 0x0, []byte{0xff})}

	var out bytes.Buffer
	if err := dump(&out, progs, 0); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if out.String() != "0xff, \n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

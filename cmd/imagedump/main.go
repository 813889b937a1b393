// Command imagedump prints the loadable bytes of a RISC-V guest ELF as a
// comma-separated hex list, ready to paste into a firmware image array.
package main

import (
	"bufio"
	"debug/elf"
	"flag"
	"fmt"
	"io"
	"os"
)

// startAddr is where guest images are loaded; lower segments belong to the
// firmware.
const startAddr = 0x400

func main() {
	minVaddr := flag.Uint64("min-vaddr", startAddr, "skip PT_LOAD segments below this address")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: imagedump [-min-vaddr addr] <guest.elf>")
		os.Exit(2)
	}

	f, err := elf.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "imagedump: read %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	defer f.Close()

	out := bufio.NewWriter(os.Stdout)
	if err := dump(out, f.Progs, *minVaddr); err != nil {
		fmt.Fprintf(os.Stderr, "imagedump: %v\n", err)
		os.Exit(1)
	}
	if err := out.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "imagedump: %v\n", err)
		os.Exit(1)
	}
}

func dump(w io.Writer, progs []*elf.Prog, minVaddr uint64) error {
	for _, p := range progs {
		if p.Type != elf.PT_LOAD || p.Vaddr < minVaddr || p.Filesz == 0 {
			continue
		}
		data := make([]byte, p.Filesz)
		if _, err := p.ReadAt(data, 0); err != nil && err != io.EOF {
			return fmt.Errorf("segment at 0x%x: %w", p.Vaddr, err)
		}
		if err := writeBytes(w, data); err != nil {
			return err
		}
	}
	return nil
}

func writeBytes(w io.Writer, data []byte) error {
	for _, b := range data {
		if _, err := fmt.Fprintf(w, "0x%02x, ", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

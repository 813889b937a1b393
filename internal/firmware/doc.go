// Package firmware simulates the firmware side of the call gate on a host.
//
// Ownership boundary:
// - guest RAM and the mapping of borrowed client buffers into it
//
// - call dispatch and the status/value register convention
//
// - the descriptor table (listening servers and accepted clients over TCP)
//
// - machine state (running, blocked in delay, exited)
//
// A Machine implements trap.Gate, so the guest-side hal package runs against
// it unchanged. Radio and Clock are pluggable so tests stay deterministic.
package firmware

// Package hal is the guest-side surface over the firmware call gate.
//
// Ownership boundary:
// - typed wrappers (print, delay, exit, compare)
//
// - descriptor handles (listen, accept, write, close)
//
// - wireless control (mode, channel, station join, address)
//
// Every operation is synchronous and blocks in the trap until the firmware
// answers. There is no cancellation at this layer; callers that need bounded
// waits poll on top of it.
package hal

// Package trap owns the firmware call boundary.
//
// Ownership boundary:
// - call numbers (closed, firmware-defined)
//
// - register frame encoding for the 1/2/3/5 argument shapes
//
// - raw status mapping (zero = success, anything else = opaque failure)
//
// Register convention:
// - a7 carries the call number in and the status out.
//
// - a0..a4 carry arguments in order; a0 carries the success value out.
//
// The native gate is the only code in the module that touches registers.
// Everything above this package works on Frame values and Gate interfaces.
package trap

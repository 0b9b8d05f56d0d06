// Package ramp computes one magnet ramp step per controller tick.
//
// A step reads the bridge temperatures and voltages and the magnet supply
// current and voltage, checks for a quench and for the target current,
// and then writes the absolute supply voltage for the next tick. The
// voltage moves by one configured step in the ramp direction only when
// neither condition holds and both interlock channels are inside the
// voltage limit; otherwise the current voltage is written back unchanged.
package ramp

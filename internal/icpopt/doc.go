// Package icpopt regulates the instantaneous capture point (ICP) of a
// walking biped. Every control tick it solves a small quadratic program for
// a feedback offset of the centroidal moment point (CMP) and, optionally,
// adjustments of the upcoming footstep locations, then searches the
// remaining swing duration of the current step for a cheaper solution.
//
// The reference ICP is a backward recursion through a piecewise constant
// CMP trajectory: one CMP (or an entry and an exit CMP) per foothold,
// switching during each transfer at its split fraction. Multipliers map
// each footstep location onto the ICP reference at the current time.
//
// Nothing in this package is safe for concurrent use. A Controller owns its
// scratch storage and is meant to run inside a single control loop.
package icpopt

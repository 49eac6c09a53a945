// Package viz renders a walking run live in the terminal.
//
// The view is a Bubble Tea program fed by frames from a running
// experiment. The feet in contact, the CoM and ICP trails and the desired
// CMP are drawn top down on a braille [Canvas].
//
// # Key Bindings
//
//	Space - Freeze or resume the display
//	T     - Toggle the ICP trail
//	Q     - Quit and stop the run
package viz

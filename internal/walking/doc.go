// Package walking closes the loop between the ICP optimization controller
// and a simulated pendulum: it plans footsteps, sequences the standing,
// transfer and swing phases, lands feet where the controller puts them
// and applies external pushes.
package walking

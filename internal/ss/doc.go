// Package ss is the conversion boundary between uncertain systems and
// plain time-invariant state space.
//
// [FromUlft] opens a trivial-horizon uncertain system into a realization
// whose leading channels are the uncertainty ports, with a side map from
// generated placeholder names back to the original blocks; [ToUlft]
// reverses it. [CloseUlft] closes the loop against concrete block samples,
// and [StateSpace.InfinityNorm] measures the resulting induced gain, which
// the scenario suites compare against certified bounds.
package ss

// Package ulft models uncertain systems in linear fractional form: a
// periodic state-space realization whose leading input/output channels are
// closed against an ordered collection of uncertainty blocks, with the
// remaining channels carrying free inputs and performance outputs.
//
// Systems compose algebraically ([Add], [Sub], [Series]) after automatic
// horizon-period alignment, carry disturbance blocks on their free inputs
// ([Ulft.AddDisturbance]), and transform into finite-horizon reachability
// form ([Ulft.Reachability]). Every operation returns a new instance.
package ulft

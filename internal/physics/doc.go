// Package physics estimates kinematic quantities from tracker hits.
//
// Units follow the host framework convention: lengths in mm, times in ns,
// energies in MeV. The speed of light is kept at the approximate value 299
// mm/ns used by the detector studies; it is configurable but not corrected.
//
// The estimator never returns NaN or Inf. Degenerate inputs produce an
// undefined estimate tagged with a reason:
//
//	est := physics.EstimateMomentum(first, last, physics.DefaultConstants())
//	if !est.OK() {
//	    // est.Reason is one of no_hits, zero_time_of_flight,
//	    // negative_time_of_flight, superluminal
//	}
package physics

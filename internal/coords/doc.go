// Package coords provides the small amount of geometry the field evaluator
// needs: a 3-vector, rigid rotations, cartesian/cylindrical conversion and the
// local/global frame transforms applied around every kernel call.
//
// All functions are pure; nothing here knows about sources or field kinds.
package coords

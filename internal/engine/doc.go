// Package engine evaluates fields of many sources at many observers in one
// call.
//
// Evaluate flattens collections, reconciles path lengths (length-1 paths
// broadcast), places every observer pixel in the global frame per path step,
// groups the leaves by geometry and calls each geometry's kernel once for the
// whole group. The kernel rows are scattered back, collections are summed
// into their slot, and the observer axis is reshaped to the observers' pixel
// shapes:
//
//	(sources, steps, observers, pixel shape..., 3)
//
// Size-1 axes other than the component axis are squeezed. Observers with
// differing pixel shapes are laid out according to Options.ShapePolicy.
//
// With Options.Parallel the groups run concurrently and the backend may split
// a group into row chunks; the result is identical to the serial one.
package engine

// Package kernels implements the field of every supported source geometry.
// Most kernels are closed forms; the transverse cylinder and the cylinder
// segment combine exact charged-line integrals with an error-controlled
// adaptive Gauss-Kronrod sweep.
//
// Each kernel works on columnar slices: row i pairs observer i with the shape
// parameters and excitation of row i, all expressed in the source's local
// frame (origin at the source center, axes aligned with the source). Kernels
// know nothing about paths, grouping or object identity.
//
// Degenerate configurations (zero size, zero excitation, observers on edges or
// singular rings) are branched out before the general formula touches a row,
// so every kernel returns a finite value for every input.
//
// Kind semantics are shared by all geometries:
//
//   - J and M are nonzero only inside a magnet volume.
//   - H = B/μ0 outside and (B - J)/μ0 inside.
//   - current sources and dipoles have M = J = 0 everywhere.
package kernels

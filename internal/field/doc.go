// Package field holds the vocabulary shared by every layer of the field
// evaluator: the field kinds ([B], [H], [M], [J]), the magnetic constant, the
// error taxonomy and the [Tensor] returned by the batch engine.
//
// Units are SI throughout. B and J are in tesla, H and M in ampere per metre,
// lengths in metre, currents in ampere and dipole moments in A·m².
package field

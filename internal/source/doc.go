// Package source is the object model read by the evaluation engine: field
// sources tagged by geometry, nested collections, observers with pixel
// arrays, and the motion paths both carry.
//
// Records are plain values. The engine never modifies them; moving and
// rotating are explicit calls on the caller's side.
package source

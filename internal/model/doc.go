// Package model builds the immutable attribute model shared by every container
// and by the scoring engine.
//
// The model is computed once from the whole item population:
//   - the container count, ceil(items / max container size)
//   - per attribute type: quadratic weight, value population counts and
//     per-container upper bounds, ceil(count / containers + slack)
//   - the sameness score table: a default score for equal values plus
//     symmetric overrides keyed by (typeA, valueA, typeB, valueB)
//
// Attribute values are interned to dense integer codes per attribute type so
// that counting and pair comparisons never touch strings on the hot path.
package model

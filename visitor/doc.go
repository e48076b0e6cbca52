// Package visitor computes the compiler-visible decomposition of
// runtime entities, the basis of stable fingerprints for compiled
// artifacts.
//
// This package contains:
//   - Stability policy predicates (canonical modules, ignorable names,
//     global identifiability, simple constants)
//   - The walk dispatcher over runtime kinds
//   - Visit events, records, and their structural equality
//   - The memoized visitor with instability detection
//   - A memoized recursive sha256 fingerprinter
package visitor

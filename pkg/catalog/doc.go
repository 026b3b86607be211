// Package catalog indexes a dataset of academic modules and answers the
// questions a catalogue viewer asks of it.
//
// [Build] turns a [Dataset] into an [Index]:
//
//   - Ancillary modules are dropped before anything is indexed.
//   - Prerequisite lists are flattened ("any of" groups contribute every
//     code they mention) and deduplicated into a forward map, with a
//     reverse "required for" map that is its exact transpose.
//   - Themes are expanded to include every transitive prerequisite of their
//     seed modules. Seed and expanded sets are kept apart.
//   - Modules are bucketed by level (or level and term) and each bucket is
//     ordered so prerequisites come first.
//
// [Index.Highlight] computes what to connect when a module is activated:
// its whole upstream prerequisite chain and its direct dependents, never
// the dependents of dependents.
//
// Theme expansion and highlighting tolerate prerequisite cycles. Level
// ordering does not: a cycle inside a bucket leaves that bucket unordered
// with an error in [Level.Err].
package catalog

// Package types defines the data model shared across the dedup pipeline:
// file entries, duplicate groups, mutation intents, outcomes, the run
// report, and the filesystem interface the pipeline operates against.
//
// Values flow through the pipeline in one direction (scanner → hasher →
// grouper → planner → executor); none of them are mutated after the stage
// that created them hands them off.
package types

// Package testutil provides shared test helpers: an in-memory Remote
// serving records from per-type tables, and a fixture mirroring a small
// Project/Sequence/Shot/Task hierarchy.
package testutil

// Package procfs reads per-process and per-thread state from the /proc
// pseudo-filesystem.
//
// The package is built around three types:
//
//   - Task - a schedulable kernel entity (process or thread) with an
//     identity, a parent, a display name and a niceness. All of these come
//     from one read of the task's stat record.
//   - Thread - a Task living under /proc/<pid>/task/<tid>.
//   - Process - a Task living under /proc/<pid>, with thread enumeration,
//     executable resolution, OOM scores, ownership and memory accounting
//     aggregated from smaps.
//
// Everything is lazy: constructing a Process performs no I/O, and each
// underlying record is read at most once per instance regardless of how many
// accessor calls are made. The exceptions are the OOM score accessors, which
// re-read on every call because the kernel updates them continuously.
//
// Processes exit at any time, so every read races with the kernel. The
// package never fails hard: a record that has vanished yields documented
// sentinel values silently, while unexpected I/O errors and malformed records
// yield the same sentinels plus a diagnostic on the FS logger.
//
// Instances are not safe for concurrent use. Confine each Process and its
// Threads to a single goroutine, or lock around every accessor.
package procfs

// Package boottime anchors boot-relative kernel timestamps to wall-clock
// time.
//
// The starttime field of a task's stat record counts clock ticks since
// system boot. This package reads the boot instant from the btime line of
// /proc/stat and converts tick counts to absolute start times.
package boottime

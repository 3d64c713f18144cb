// Package output renders a process snapshot as a table.
//
// Rows are plain value structs assembled by the caller; this package only
// sorts and formats, so it never touches procfs and is trivially testable.
package output

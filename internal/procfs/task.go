package procfs

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// UnknownPID is the parent id reported before a successful stat read.
const UnknownPID = -1

// minStatFields is the number of whitespace-separated fields required after
// the comm field. We only retain ppid (2nd), nice (17th) and starttime
// (20th); everything in between is skipped by position, since the record
// carries no field names.
const minStatFields = 20

// Task is a schedulable kernel entity: a process, or a thread of one. It
// lazily reads the task's stat record to answer parent, name and niceness
// queries; the record is read at most once per Task, even if the read fails.
type Task struct {
	fs  *FS
	id  int
	dir string

	statRead   bool
	ppid       int
	name       string
	nice       int
	startTicks uint64
}

// newTask returns a Task for a top-level process directory.
func newTask(fs *FS, pid int) Task {
	return Task{
		fs:   fs,
		id:   pid,
		dir:  filepath.Join(fs.Root, strconv.Itoa(pid)),
		ppid: UnknownPID,
	}
}

// newThreadTask returns a Task for a thread directory under its owning
// process.
func newThreadTask(fs *FS, pid, tid int) Task {
	return Task{
		fs:   fs,
		id:   tid,
		dir:  filepath.Join(fs.Root, strconv.Itoa(pid), "task", strconv.Itoa(tid)),
		ppid: UnknownPID,
	}
}

// TaskID returns the task's kernel identity. Never performs I/O.
func (t *Task) TaskID() int {
	return t.id
}

// PPID returns the parent process id, or UnknownPID if the stat record could
// not be read.
func (t *Task) PPID() int {
	t.ensureStat()
	return t.ppid
}

// Name returns the task's display name (the kernel comm field), or the empty
// string if the stat record could not be read.
func (t *Task) Name() string {
	t.ensureStat()
	return t.name
}

// Nice returns the task's scheduling niceness, or 0 if the stat record could
// not be read.
func (t *Task) Nice() int {
	t.ensureStat()
	return t.nice
}

// ensureStat reads and parses the task's stat record on first call. The
// record is a single line:
//
//	<pid> (<comm>) <state> <ppid> <pgrp> ... <nice> ...
//
// comm is whatever the process named itself and may contain spaces and
// parentheses, so the line cannot be split on whitespace directly. comm
// cannot contain a newline, which makes the LAST ')' on the line the
// closing delimiter; everything after it is positional.
func (t *Task) ensureStat() {
	if t.statRead {
		return
	}

	// Mark the read attempted before interpreting anything: if it fails
	// there is no point trying again on the next accessor call.
	t.statRead = true

	path := filepath.Join(t.dir, "stat")
	data, err := os.ReadFile(path)
	if err != nil {
		// ENOENT means the task exited; that race is expected.
		if !os.IsNotExist(err) {
			t.fs.Log.Warnf("reading %s: %v", path, err)
		}
		return
	}

	line := strings.TrimSpace(string(data))

	open := strings.IndexByte(line, '(')
	closing := strings.LastIndexByte(line, ')')
	if open < 0 || closing < open {
		t.fs.Log.Warnf("parsing %s: no parenthesized comm field", path)
		return
	}

	pid, err := strconv.Atoi(strings.TrimSpace(line[:open]))
	if err != nil {
		t.fs.Log.Warnf("parsing %s: bad pid field: %v", path, err)
		return
	}
	if pid != t.id {
		t.fs.Log.Warnf("parsing %s: got pid %d, expected %d", path, pid, t.id)
		return
	}

	rest := strings.Fields(line[closing+1:])
	if len(rest) < minStatFields {
		t.fs.Log.Warnf("parsing %s: expected at least %d fields after comm, got %d",
			path, minStatFields, len(rest))
		return
	}

	// rest[0] is the state character; skipped.
	ppid, err := strconv.Atoi(rest[1])
	if err != nil {
		t.fs.Log.Warnf("parsing %s: bad ppid field: %v", path, err)
		return
	}
	nice, err := strconv.Atoi(rest[16])
	if err != nil {
		t.fs.Log.Warnf("parsing %s: bad nice field: %v", path, err)
		return
	}
	startTicks, err := strconv.ParseUint(rest[19], 10, 64)
	if err != nil {
		t.fs.Log.Warnf("parsing %s: bad starttime field: %v", path, err)
		return
	}

	t.ppid = ppid
	t.nice = nice
	t.startTicks = startTicks
	t.name = line[open+1 : closing]
}

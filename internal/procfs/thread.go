package procfs

// Thread is a secondary execution context of a process. Its stat record
// lives under the owning process's task directory; parent, name and niceness
// behave exactly as for any other Task.
type Thread struct {
	Task
	tid int
}

// Thread returns a handle on thread tid of process pid. No I/O is performed
// until an accessor is called.
func (fs *FS) Thread(pid, tid int) *Thread {
	return &Thread{
		Task: newThreadTask(fs, pid, tid),
		tid:  tid,
	}
}

// TID returns the thread id.
func (t *Thread) TID() int {
	return t.tid
}

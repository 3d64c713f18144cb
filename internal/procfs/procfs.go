package procfs

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DefaultRoot is the conventional procfs mount point.
const DefaultRoot = "/proc"

// FS is a handle on a procfs mount. All Task, Thread and Process values are
// created through an FS, which lets tests point the whole package at a
// fixture tree and lets callers redirect diagnostics.
type FS struct {
	// Root is the procfs mount point, typically /proc.
	Root string

	// Log receives diagnostics for unexpected I/O errors and malformed
	// records. Expected races (a process exiting mid-read) are silent.
	Log logrus.FieldLogger

	// KeepMainThread keeps the task entry whose tid equals the pid during
	// thread enumeration. On Linux that entry is the main thread, which
	// duplicates the Process itself, so the default is to drop it. Other
	// procfs-like namespaces may not follow this convention.
	KeepMainThread bool
}

// New returns an FS rooted at root, logging diagnostics through the
// standard logrus logger.
func New(root string) *FS {
	return &FS{
		Root: root,
		Log:  logrus.StandardLogger(),
	}
}

// Pids lists the numeric entries of the procfs root, i.e. the live process
// ids at the time of the call. The listing is re-read on every call and
// never cached; order is whatever the directory yields.
func (fs *FS) Pids() ([]int, error) {
	entries, err := os.ReadDir(fs.Root)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", fs.Root, err)
	}

	var pids []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

package procfs

import (
	"bufio"
	"math"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatseng/psmem/internal/boottime"
	"golang.org/x/sys/unix"
)

const (
	// UnknownKB is reported by the memory accessors when the smaps record
	// could not be opened. Distinct from zero, which means the record was
	// read and summed to nothing.
	UnknownKB = -1

	// ScoreUnavailable is reported by the OOM accessors when the score file
	// is missing or unreadable. Placed well outside the kernel's score
	// ranges (oom_score_adj goes down to -1000).
	ScoreUnavailable = math.MinInt32

	// exeMaxLen caps the resolved executable path. Longer paths are
	// truncated rather than treated as errors.
	exeMaxLen = 127
)

// Process is a Task with the process-level extras: thread enumeration,
// executable resolution, OOM scores, memory accounting and ownership.
type Process struct {
	Task
	pid int

	threadsRead bool
	threads     []*Thread

	exeRead bool
	exe     string

	cmdlineRead bool
	cmdline     []string

	memRead bool
	vsizeKB int
	rssKB   int
	pssKB   int
	ussKB   int

	owner string
}

// Process returns a handle on process pid. No I/O is performed until an
// accessor is called.
func (fs *FS) Process(pid int) *Process {
	return &Process{
		Task:    newTask(fs, pid),
		pid:     pid,
		vsizeKB: UnknownKB,
		rssKB:   UnknownKB,
		pssKB:   UnknownKB,
		ussKB:   UnknownKB,
	}
}

// PID returns the process id.
func (p *Process) PID() int {
	return p.pid
}

// Threads enumerates the process's secondary threads by listing its task
// directory. The entry whose tid equals the pid is the main thread and is
// dropped unless the FS says otherwise; non-numeric entries are skipped.
// The listing happens once: if it fails (the process exited), the result is
// permanently empty. Order is whatever the directory yields.
func (p *Process) Threads() []*Thread {
	if p.threadsRead {
		return p.threads
	}
	p.threadsRead = true

	entries, err := os.ReadDir(filepath.Join(p.dir, "task"))
	if err != nil {
		return p.threads
	}

	for _, entry := range entries {
		tid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if tid == p.pid && !p.fs.KeepMainThread {
			continue
		}
		p.threads = append(p.threads, p.fs.Thread(p.pid, tid))
	}
	return p.threads
}

// Exe resolves the process's executable path through the exe symlink,
// capped at 127 bytes. A missing or broken link (process gone, kernel
// thread, insufficient privilege) yields the empty string, cached as such.
func (p *Process) Exe() string {
	if p.exeRead {
		return p.exe
	}
	p.exeRead = true

	link, err := os.Readlink(filepath.Join(p.dir, "exe"))
	if err != nil {
		return ""
	}
	if len(link) > exeMaxLen {
		link = link[:exeMaxLen]
	}
	p.exe = link
	return p.exe
}

// Cmdline returns the process's argv, read once from the NUL-delimited
// cmdline record. Empty for kernel threads and vanished processes.
func (p *Process) Cmdline() []string {
	if p.cmdlineRead {
		return p.cmdline
	}
	p.cmdlineRead = true

	data, err := os.ReadFile(filepath.Join(p.dir, "cmdline"))
	if err != nil || len(data) == 0 {
		return p.cmdline
	}
	for _, arg := range strings.Split(string(data), "\x00") {
		if arg != "" {
			p.cmdline = append(p.cmdline, arg)
		}
	}
	return p.cmdline
}

// OOMScore returns the process's current OOM killer score. Unlike the
// identity accessors this re-reads on every call: the kernel recomputes the
// score as memory pressure changes.
func (p *Process) OOMScore() int {
	return p.readIntFile("oom_score")
}

// OOMScoreAdj returns the process's OOM score adjustment. Re-read on every
// call.
func (p *Process) OOMScoreAdj() int {
	return p.readIntFile("oom_score_adj")
}

// OOMAdj returns the legacy OOM adjustment value. Re-read on every call.
func (p *Process) OOMAdj() int {
	return p.readIntFile("oom_adj")
}

// readIntFile reads a single decimal integer from a file in the process
// directory, returning ScoreUnavailable if it cannot be read or parsed.
func (p *Process) readIntFile(name string) int {
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		return ScoreUnavailable
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return ScoreUnavailable
	}
	return v
}

// VsizeKB returns the process's virtual memory size in kB, summed over all
// smaps regions, or UnknownKB if smaps could not be read.
func (p *Process) VsizeKB() int {
	p.ensureMeminfo()
	return p.vsizeKB
}

// RssKB returns the resident set size in kB, or UnknownKB.
func (p *Process) RssKB() int {
	p.ensureMeminfo()
	return p.rssKB
}

// PssKB returns the proportional set size in kB, or UnknownKB.
func (p *Process) PssKB() int {
	p.ensureMeminfo()
	return p.pssKB
}

// UssKB returns the unique set size in kB (private dirty plus private clean,
// summed over all regions), or UnknownKB.
func (p *Process) UssKB() int {
	p.ensureMeminfo()
	return p.ussKB
}

// ensureMeminfo scans the process's smaps record once, accumulating the four
// summary metrics across every region. Region headers and sub-fields we do
// not account for (Shared_*, Swap, ...) fall through the switch.
func (p *Process) ensureMeminfo() {
	if p.memRead {
		return
	}
	p.memRead = true

	path := filepath.Join(p.dir, "smaps")
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			p.fs.Log.Warnf("opening %s: %v", path, err)
		}
		return
	}
	defer f.Close()

	// The record opened: from here on the metrics are known, even if the
	// process has no mapped regions at all.
	p.vsizeKB, p.rssKB, p.pssKB, p.ussKB = 0, 0, 0, 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		switch fields[0] {
		case "Size:":
			p.vsizeKB += v
		case "Rss:":
			p.rssKB += v
		case "Pss:":
			p.pssKB += v
		case "Private_Dirty:", "Private_Clean:":
			p.ussKB += v
		}
	}
	if err := scanner.Err(); err != nil {
		p.fs.Log.Warnf("reading %s: %v", path, err)
	}
}

// StartTime returns the process's start time derived from the starttime
// field of its stat record and the given boot-time anchor. Returns the zero
// time if the stat record could not be read.
func (p *Process) StartTime(anchor *boottime.Anchor) time.Time {
	p.ensureStat()
	if p.startTicks == 0 {
		return time.Time{}
	}
	return anchor.FromTicks(p.startTicks)
}

// User resolves the process's owning account name from the uid of its proc
// directory. An unresolvable uid falls back to its decimal form; a failed
// stat yields "?". Successful resolutions are cached, but "?" is not, so a
// later call gets another chance.
func (p *Process) User() string {
	if p.owner != "" {
		return p.owner
	}

	var st unix.Stat_t
	if err := unix.Stat(p.dir, &st); err != nil {
		return "?"
	}

	uid := strconv.FormatUint(uint64(st.Uid), 10)
	if u, err := user.LookupId(uid); err == nil {
		p.owner = u.Username
	} else {
		p.owner = uid
	}
	return p.owner
}

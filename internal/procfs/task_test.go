package procfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFS returns an FS rooted at a fresh fixture tree, with diagnostics
// captured on the returned hook.
func testFS(t *testing.T) (*FS, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	fs := New(t.TempDir())
	fs.Log = logger
	return fs, hook
}

// statLine builds a realistic stat record for pid with the given comm, ppid,
// nice and starttime values.
func statLine(pid int, comm string, ppid, nice int, startTicks uint64) string {
	return fmt.Sprintf(
		"%d (%s) S %d 100 100 0 -1 4194560 1400 0 2 0 12 4 0 0 20 %d 3 0 %d 223424512 1168 18446744073709551615",
		pid, comm, ppid, nice, startTicks)
}

func procDir(t *testing.T, fs *FS, pid int) string {
	t.Helper()
	dir := filepath.Join(fs.Root, strconv.Itoa(pid))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

func writeStat(t *testing.T, fs *FS, pid int, line string) {
	t.Helper()
	dir := procDir(t, fs, pid)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stat"), []byte(line+"\n"), 0o644))
}

func TestTask_StatFields(t *testing.T) {
	fs, hook := testFS(t)
	writeStat(t, fs, 1234, statLine(1234, "nginx", 1, 5, 4000))

	proc := fs.Process(1234)

	assert.Equal(t, 1234, proc.TaskID())
	assert.Equal(t, 1, proc.PPID())
	assert.Equal(t, "nginx", proc.Name())
	assert.Equal(t, 5, proc.Nice())
	assert.Empty(t, hook.Entries, "well-formed record should produce no diagnostics")
}

func TestTask_ReadOnce(t *testing.T) {
	fs, _ := testFS(t)
	writeStat(t, fs, 42, statLine(42, "first", 1, 0, 100))

	proc := fs.Process(42)
	require.Equal(t, "first", proc.Name())

	// Replace the record and then delete it outright; the task must keep
	// serving the values from its single read.
	writeStat(t, fs, 42, statLine(42, "second", 99, 19, 200))
	assert.Equal(t, "first", proc.Name())
	assert.Equal(t, 1, proc.PPID())
	assert.Equal(t, 0, proc.Nice())

	require.NoError(t, os.Remove(filepath.Join(fs.Root, "42", "stat")))
	assert.Equal(t, "first", proc.Name())
}

func TestTask_FailedReadNotRetried(t *testing.T) {
	fs, _ := testFS(t)

	proc := fs.Process(42)
	assert.Equal(t, UnknownPID, proc.PPID())

	// The record shows up afterwards; too late, the attempt was spent.
	writeStat(t, fs, 42, statLine(42, "late", 1, 0, 100))
	assert.Equal(t, UnknownPID, proc.PPID())
	assert.Empty(t, proc.Name())
}

func TestTask_NameWithParens(t *testing.T) {
	fs, hook := testFS(t)

	tests := []struct {
		name string
		comm string
	}{
		{"embedded right parens", "weird)name)"},
		{"embedded spaces", "Web Content"},
		{"spaces and parens", "a (b) c)"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pid := 1000 + i
			writeStat(t, fs, pid, statLine(pid, tt.comm, 7, -3, 500))

			proc := fs.Process(pid)
			assert.Equal(t, tt.comm, proc.Name())
			assert.Equal(t, 7, proc.PPID())
			assert.Equal(t, -3, proc.Nice())
		})
	}
	assert.Empty(t, hook.Entries)
}

func TestTask_EmptyName(t *testing.T) {
	fs, hook := testFS(t)
	writeStat(t, fs, 55, statLine(55, "", 2, 1, 300))

	proc := fs.Process(55)
	assert.Empty(t, proc.Name())
	assert.Equal(t, 2, proc.PPID(), "empty comm is not an error")
	assert.Empty(t, hook.Entries)
}

func TestTask_MissingStatSilent(t *testing.T) {
	fs, hook := testFS(t)

	proc := fs.Process(9999)
	assert.Equal(t, UnknownPID, proc.PPID())
	assert.Empty(t, proc.Name())
	assert.Equal(t, 0, proc.Nice())
	assert.Empty(t, hook.Entries, "a vanished task is the expected race, not a diagnostic")
}

func TestTask_MalformedStatDiagnostic(t *testing.T) {
	fs, hook := testFS(t)
	writeStat(t, fs, 77, "77 (short) S 1 2 3")

	proc := fs.Process(77)
	assert.Equal(t, UnknownPID, proc.PPID())
	assert.Empty(t, proc.Name())
	require.Len(t, hook.Entries, 1, "malformed record should produce exactly one diagnostic")

	// Further accessor calls must not retry (and must not re-log).
	assert.Equal(t, 0, proc.Nice())
	assert.Len(t, hook.Entries, 1)
}

func TestTask_NoCommDiagnostic(t *testing.T) {
	fs, hook := testFS(t)
	writeStat(t, fs, 78, "78 no parens here 1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19 20")

	proc := fs.Process(78)
	assert.Empty(t, proc.Name())
	assert.Len(t, hook.Entries, 1)
}

func TestTask_PidMismatchDiagnostic(t *testing.T) {
	fs, hook := testFS(t)
	writeStat(t, fs, 88, statLine(1234, "imposter", 1, 0, 100))

	proc := fs.Process(88)
	assert.Equal(t, UnknownPID, proc.PPID())
	assert.Empty(t, proc.Name())
	require.Len(t, hook.Entries, 1)
	assert.Contains(t, hook.Entries[0].Message, "expected 88")
}

func TestThread_TID(t *testing.T) {
	fs, hook := testFS(t)

	taskDir := filepath.Join(fs.Root, "100", "task", "101")
	require.NoError(t, os.MkdirAll(taskDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(taskDir, "stat"),
		[]byte(statLine(101, "worker", 100, 10, 600)+"\n"), 0o644))

	th := fs.Thread(100, 101)
	assert.Equal(t, 101, th.TID())
	assert.Equal(t, 101, th.TaskID())
	assert.Equal(t, "worker", th.Name())
	assert.Equal(t, 100, th.PPID())
	assert.Equal(t, 10, th.Nice())
	assert.Empty(t, hook.Entries)
}

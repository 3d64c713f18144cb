package boottime

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const statFixture = `cpu  134323 0 28102 2400738 1852 0 1063 0 0 0
cpu0 33921 0 7021 600184 463 0 265 0 0 0
intr 12605239 55 9 0 0 0 0 0 0 1
ctxt 29473049
btime 1000000000
processes 127853
procs_running 2
`

func writeStatFixture(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "stat"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestNew_ReadsBtime(t *testing.T) {
	root := writeStatFixture(t, statFixture)

	anchor, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := time.Unix(1000000000, 0)
	if !anchor.BootTime().Equal(want) {
		t.Errorf("BootTime() = %v, want %v", anchor.BootTime(), want)
	}
}

func TestNew_FallbackWhenUnreadable(t *testing.T) {
	anchor, err := New(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	boot := anchor.BootTime()
	if boot.IsZero() {
		t.Error("fallback boot time should not be zero")
	}
	if boot.After(time.Now()) {
		t.Error("fallback boot time should not be in the future")
	}
}

func TestAnchor_FromTicks(t *testing.T) {
	boot := time.Unix(1000000000, 0)
	anchor := &Anchor{bootTime: boot}

	tests := []struct {
		name  string
		ticks uint64
		want  time.Time
	}{
		{
			name:  "zero ticks",
			ticks: 0,
			want:  boot,
		},
		{
			name:  "one second of ticks",
			ticks: 100,
			want:  boot.Add(1 * time.Second),
		},
		{
			name:  "sub-second remainder",
			ticks: 250,
			want:  boot.Add(2*time.Second + 500*time.Millisecond),
		},
		{
			name:  "multi-year uptime does not overflow",
			ticks: 100 * 60 * 60 * 24 * 365 * 5,
			want:  boot.Add(5 * 365 * 24 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := anchor.FromTicks(tt.ticks)
			if !got.Equal(tt.want) {
				t.Errorf("FromTicks(%d) = %v, want %v", tt.ticks, got, tt.want)
			}
		})
	}
}

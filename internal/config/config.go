// Package config parses the psmem command line and environment.
package config

import (
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
)

// SortKeys are the accepted values for the -k/--key flag.
var SortKeys = []string{"pid", "name", "user", "vsize", "rss", "pss", "uss"}

// Config holds the parsed command-line configuration.
type Config struct {
	// SortKey selects the report column to sort on.
	SortKey string
	// Reverse inverts the sort order.
	Reverse bool
	// Human renders sizes in human-readable units instead of raw kB.
	Human bool
	// ShowThreads adds per-process thread rows to the report.
	ShowThreads bool
	// ShowOOM adds the OOM score columns.
	ShowOOM bool
	// FilterExpr is an optional row filter expression; empty means keep all.
	FilterExpr string
	// PIDs restricts the report to specific processes; empty means all.
	PIDs []int
	// ShowVersion prints version information and exits.
	ShowVersion bool
	// ShowHelp prints usage and exits.
	ShowHelp bool
}

// EnvConfig holds configuration taken from environment variables. These are
// retargeting knobs, not per-run options.
type EnvConfig struct {
	// ProcRoot is the procfs mount point to read.
	ProcRoot string `env:"PSMEM_PROC_ROOT" envDefault:"/proc"`
	// KeepMainThread keeps the task entry whose tid equals the pid during
	// thread enumeration. Linux lists the main thread there, duplicating
	// the process row, so the default is to drop it; set this when the
	// target namespace follows a different convention.
	KeepMainThread bool `env:"PSMEM_KEEP_MAIN_THREAD" envDefault:"false"`
}

// ParseEnv parses the environment configuration.
func ParseEnv() (*EnvConfig, error) {
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

// ParseArgs parses command-line arguments.
// Expected format: psmem [flags] [pid ...]
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{SortKey: "pss"}

	if len(args) == 0 {
		return nil, fmt.Errorf("no arguments provided")
	}

	i := 1
	for ; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-k", "--key":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			if !validSortKey(args[i]) {
				return nil, fmt.Errorf("invalid sort key %q (valid: %v)", args[i], SortKeys)
			}
			cfg.SortKey = args[i]
		case "-f", "--filter":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a value", arg)
			}
			i++
			cfg.FilterExpr = args[i]
		case "-r", "--reverse":
			cfg.Reverse = true
		case "-H", "--human-readable":
			cfg.Human = true
		case "-t", "--threads":
			cfg.ShowThreads = true
		case "-o", "--oom":
			cfg.ShowOOM = true
		case "--version":
			cfg.ShowVersion = true
		case "-h", "--help":
			cfg.ShowHelp = true
		default:
			pid, err := strconv.Atoi(arg)
			if err != nil || pid <= 0 {
				return nil, fmt.Errorf("unknown argument %q", arg)
			}
			cfg.PIDs = append(cfg.PIDs, pid)
		}
	}

	return cfg, nil
}

// Usage returns the help text for the given program name.
func Usage(program string) string {
	return fmt.Sprintf(`Usage: %s [flags] [pid ...]

Report per-process memory usage (VSIZE, RSS, PSS, USS) from procfs.
With no pids, every live process is reported.

Flags:
  -k, --key <field>      sort by pid|name|user|vsize|rss|pss|uss (default pss)
  -r, --reverse          sort in reverse order
  -H, --human-readable   print sizes in human readable units
  -t, --threads          list each process's threads
  -o, --oom              include OOM score columns
  -f, --filter <expr>    keep rows matching an expression,
                         e.g. 'rss_kb > 10240 && user == "root"'
      --version          print version information
  -h, --help             print this help

Environment:
  PSMEM_PROC_ROOT        procfs mount point (default /proc)
  PSMEM_KEEP_MAIN_THREAD keep the main-thread task entry when listing threads
`, program)
}

func validSortKey(key string) bool {
	for _, k := range SortKeys {
		if k == key {
			return true
		}
	}
	return false
}

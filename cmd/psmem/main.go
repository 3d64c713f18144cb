// psmem is a one-shot snapshot of per-process memory usage on Linux,
// aggregated from procfs (VSIZE, RSS, PSS, USS).
package main

import (
	"fmt"
	"os"

	"github.com/fatseng/psmem/internal/boottime"
	"github.com/fatseng/psmem/internal/config"
	"github.com/fatseng/psmem/internal/filter"
	"github.com/fatseng/psmem/internal/output"
	"github.com/fatseng/psmem/internal/procfs"
	"github.com/sirupsen/logrus"
)

// Version information injected by GoReleaser at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	logrus.SetOutput(os.Stderr)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprint(os.Stderr, config.Usage(os.Args[0]))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.ParseArgs(os.Args)
	if err != nil {
		return err
	}

	if cfg.ShowHelp {
		fmt.Print(config.Usage(os.Args[0]))
		return nil
	}
	if cfg.ShowVersion {
		fmt.Printf("psmem %s (commit: %s, built: %s)\n", version, commit, date)
		return nil
	}

	envCfg, err := config.ParseEnv()
	if err != nil {
		return err
	}

	fs := procfs.New(envCfg.ProcRoot)
	fs.KeepMainThread = envCfg.KeepMainThread

	anchor, err := boottime.New(envCfg.ProcRoot)
	if err != nil {
		return err
	}

	var rowFilter *filter.Filter
	if cfg.FilterExpr != "" {
		rowFilter, err = filter.Compile(cfg.FilterExpr, logrus.StandardLogger())
		if err != nil {
			return err
		}
	}

	pids := cfg.PIDs
	if len(pids) == 0 {
		pids, err = fs.Pids()
		if err != nil {
			return err
		}
	}

	rows := snapshot(fs, anchor, pids, rowFilter, cfg)

	output.Sort(rows, cfg.SortKey, cfg.Reverse)
	output.Render(os.Stdout, rows, output.Options{
		Human:            cfg.Human,
		ShowOOM:          cfg.ShowOOM,
		ShowThreads:      cfg.ShowThreads,
		ScoreUnavailable: procfs.ScoreUnavailable,
	})
	return nil
}

// snapshot reads every requested process once and assembles the report rows.
// Processes that vanished between enumeration and reading leave no trace in
// the report.
func snapshot(fs *procfs.FS, anchor *boottime.Anchor, pids []int, rowFilter *filter.Filter, cfg *config.Config) []output.Row {
	rows := make([]output.Row, 0, len(pids))

	for _, pid := range pids {
		proc := fs.Process(pid)

		row := output.Row{
			PID:     proc.PID(),
			PPID:    proc.PPID(),
			User:    proc.User(),
			Name:    proc.Name(),
			Exe:     proc.Exe(),
			Nice:    proc.Nice(),
			VsizeKB: proc.VsizeKB(),
			RssKB:   proc.RssKB(),
			PssKB:   proc.PssKB(),
			UssKB:   proc.UssKB(),
			Started: proc.StartTime(anchor),
		}

		// Gone mid-read: every record vanished underneath us.
		if row.Name == "" && row.Exe == "" && row.RssKB == procfs.UnknownKB {
			continue
		}

		if cfg.ShowOOM {
			row.OOMScore = proc.OOMScore()
			row.OOMScoreAdj = proc.OOMScoreAdj()
			row.OOMAdj = proc.OOMAdj()
		}

		if cfg.ShowThreads {
			for _, th := range proc.Threads() {
				row.Threads = append(row.Threads, output.ThreadRow{
					TID:  th.TID(),
					Name: th.Name(),
					Nice: th.Nice(),
				})
			}
		}

		if rowFilter != nil && !rowFilter.Match(filter.Fields{
			PID:      row.PID,
			PPID:     row.PPID,
			Name:     row.Name,
			User:     row.User,
			Exe:      row.Exe,
			VsizeKB:  row.VsizeKB,
			RssKB:    row.RssKB,
			PssKB:    row.PssKB,
			UssKB:    row.UssKB,
			Nice:     row.Nice,
			OOMScore: proc.OOMScore(),
		}) {
			continue
		}

		rows = append(rows, row)
	}

	return rows
}

package output

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Row is one process in the report.
type Row struct {
	PID     int
	PPID    int
	User    string
	Name    string
	Exe     string
	Nice    int
	VsizeKB int
	RssKB   int
	PssKB   int
	UssKB   int

	OOMScore    int
	OOMScoreAdj int
	OOMAdj      int

	Started time.Time

	Threads []ThreadRow
}

// ThreadRow is one secondary thread, shown indented under its process.
type ThreadRow struct {
	TID  int
	Name string
	Nice int
}

// Options control table layout and formatting.
type Options struct {
	// Human renders sizes as human-readable units instead of raw kB.
	Human bool
	// ShowOOM adds the three OOM score columns.
	ShowOOM bool
	// ShowThreads adds an indented row per secondary thread.
	ShowThreads bool
	// ScoreUnavailable is the sentinel the OOM columns render as "?".
	ScoreUnavailable int
}

// Sort orders rows by the selected key. The sort is stable, so rows that
// compare equal keep the enumeration order they arrived in.
func Sort(rows []Row, key string, reverse bool) {
	less := lessFunc(key)
	sort.SliceStable(rows, func(i, j int) bool {
		if reverse {
			i, j = j, i
		}
		return less(&rows[i], &rows[j])
	})
}

func lessFunc(key string) func(a, b *Row) bool {
	switch key {
	case "pid":
		return func(a, b *Row) bool { return a.PID < b.PID }
	case "name":
		return func(a, b *Row) bool { return a.Name < b.Name }
	case "user":
		return func(a, b *Row) bool { return a.User < b.User }
	case "vsize":
		return func(a, b *Row) bool { return a.VsizeKB > b.VsizeKB }
	case "rss":
		return func(a, b *Row) bool { return a.RssKB > b.RssKB }
	case "uss":
		return func(a, b *Row) bool { return a.UssKB > b.UssKB }
	default: // pss
		return func(a, b *Row) bool { return a.PssKB > b.PssKB }
	}
}

// Render writes the report table to w.
func Render(w io.Writer, rows []Row, opts Options) {
	table := tablewriter.NewWriter(w)

	header := []string{"PID", "PPID", "USER", "NAME", "VSIZE", "RSS", "PSS", "USS", "NICE", "AGE"}
	if opts.ShowOOM {
		header = append(header, "OOM", "OOM_ADJ", "OOM_SCORE_ADJ")
	}
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetColumnSeparator(" ")

	var totalRss, totalPss, totalUss int
	for i := range rows {
		row := &rows[i]

		cells := []string{
			strconv.Itoa(row.PID),
			strconv.Itoa(row.PPID),
			row.User,
			displayName(row),
			formatKB(row.VsizeKB, opts.Human),
			formatKB(row.RssKB, opts.Human),
			formatKB(row.PssKB, opts.Human),
			formatKB(row.UssKB, opts.Human),
			strconv.Itoa(row.Nice),
			formatAge(row.Started),
		}
		if opts.ShowOOM {
			cells = append(cells,
				formatScore(row.OOMScore, opts.ScoreUnavailable),
				formatScore(row.OOMAdj, opts.ScoreUnavailable),
				formatScore(row.OOMScoreAdj, opts.ScoreUnavailable),
			)
		}
		table.Append(cells)

		if row.RssKB > 0 {
			totalRss += row.RssKB
		}
		if row.PssKB > 0 {
			totalPss += row.PssKB
		}
		if row.UssKB > 0 {
			totalUss += row.UssKB
		}

		if opts.ShowThreads {
			for _, th := range row.Threads {
				cells := []string{
					"", strconv.Itoa(th.TID), "", "  " + th.Name,
					"", "", "", "", strconv.Itoa(th.Nice), "",
				}
				if opts.ShowOOM {
					cells = append(cells, "", "", "")
				}
				table.Append(cells)
			}
		}
	}

	footer := []string{
		"", "", "", "TOTAL",
		"",
		formatKB(totalRss, opts.Human),
		formatKB(totalPss, opts.Human),
		formatKB(totalUss, opts.Human),
		"", "",
	}
	if opts.ShowOOM {
		footer = append(footer, "", "", "")
	}
	table.SetFooter(footer)

	table.Render()
}

// displayName prefers the resolved executable path over the 15-character
// comm field when one is available.
func displayName(row *Row) string {
	if row.Exe != "" {
		return row.Exe
	}
	if row.Name != "" {
		return "[" + row.Name + "]"
	}
	return "?"
}

// formatKB renders a kB quantity, using "?" for the unknown sentinel.
func formatKB(kb int, human bool) string {
	if kb < 0 {
		return "?"
	}
	if human {
		return humanize.IBytes(uint64(kb) * 1024)
	}
	return strconv.Itoa(kb)
}

// formatScore renders an OOM score, using "?" for the unavailable sentinel.
func formatScore(score, unavailable int) string {
	if score == unavailable {
		return "?"
	}
	return strconv.Itoa(score)
}

// formatAge renders how long ago a process started.
func formatAge(started time.Time) string {
	if started.IsZero() {
		return "?"
	}
	return humanize.Time(started)
}

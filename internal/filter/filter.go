// Package filter compiles user-supplied row filter expressions and evaluates
// them against per-process snapshot fields.
package filter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sirupsen/logrus"
)

// Fields is the evaluation environment one process row exposes to a filter
// expression.
type Fields struct {
	PID      int    `expr:"pid"`
	PPID     int    `expr:"ppid"`
	Name     string `expr:"name"`
	User     string `expr:"user"`
	Exe      string `expr:"exe"`
	VsizeKB  int    `expr:"vsize_kb"`
	RssKB    int    `expr:"rss_kb"`
	PssKB    int    `expr:"pss_kb"`
	UssKB    int    `expr:"uss_kb"`
	Nice     int    `expr:"nice"`
	OOMScore int    `expr:"oom_score"`
}

// Filter is a compiled row filter.
type Filter struct {
	src  string
	prog *vm.Program
	log  logrus.FieldLogger
}

// Compile type-checks and compiles a filter expression. The expression must
// evaluate to a boolean; anything else is rejected here rather than at match
// time.
func Compile(src string, log logrus.FieldLogger) (*Filter, error) {
	prog, err := expr.Compile(src, expr.Env(Fields{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling filter %q: %w", src, err)
	}
	return &Filter{src: src, prog: prog, log: log}, nil
}

// Match evaluates the filter against one row. Evaluation errors keep the row
// out of the report and are surfaced as diagnostics, never as failures.
func (f *Filter) Match(row Fields) bool {
	out, err := expr.Run(f.prog, row)
	if err != nil {
		f.log.Warnf("evaluating filter %q against pid %d: %v", f.src, row.PID, err)
		return false
	}
	keep, ok := out.(bool)
	return ok && keep
}

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

type migrateProgressReporter struct {
	enabled bool
	out     io.Writer
	total   int
	start   time.Time
	spinner int
	lastLen int
}

// newMigrateProgressReporter draws a spinner on stderr when it is a terminal
// and the summary is not machine-readable.
func newMigrateProgressReporter(total int, asJSON bool) *migrateProgressReporter {
	stat, err := os.Stderr.Stat()
	enabled := err == nil && (stat.Mode()&os.ModeCharDevice) != 0 && !asJSON
	return &migrateProgressReporter{
		enabled: enabled,
		out:     os.Stderr,
		total:   total,
		start:   time.Now(),
	}
}

// Update is called with the batch runner's lock held.
func (r *migrateProgressReporter) Update(file string, count int) {
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}
	r.printStatus(fmt.Sprintf("%s migrate %d/%d %s", frame, count, r.total, file))
}

func (r *migrateProgressReporter) Done(count int) {
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("migrate complete (%d configurations in %s)", count, elapsed))
	fmt.Fprintln(r.out)
}

func (r *migrateProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status += strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.out, "\r%s", status)
}

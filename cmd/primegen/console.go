package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/primegen"
)

// console prints worker events to a terminal.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) primegen.ObserverFuncs {
	c := &console{w: w}
	return primegen.ObserverFuncs{
		Progress:       c.progress,
		Status:         c.status,
		ExportProgress: c.exportProgress,
		ExportSuccess:  c.exportSuccess,
	}
}

func (c *console) progress(found, target uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\rprimes: %s / %s (%5.1f%%)", humanize.Comma(int64(found)), humanize.Comma(int64(target)), percent(found, target))
	if found == target {
		fmt.Fprintln(c.w)
	}
}

func (c *console) status(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\r%s\n", msg)
}

func (c *console) exportProgress(written, total uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\rexported: %s / %s (%5.1f%%)", humanize.Comma(int64(written)), humanize.Comma(int64(total)), percent(written, total))
}

func (c *console) exportSuccess(res primegen.ExportResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\nexported %s entries to %s\n", humanize.Comma(int64(res.Written)), res.Location)
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 100
	}
	return 100 * float64(n) / float64(total)
}

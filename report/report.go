// Package report renders tree diagnostics (structural statistics,
// locality and memory figures) as small, colorized terminal reports.
//
// Coloring is delegated to the fatih/color package and therefore honors
// color.NoColor: when the process is not attached to a terminal the
// reports degrade to plain text automatically.
package report

/*
BSD 3-Clause License

Copyright (c) 2020–21, Norbert Pillmayer

All rights reserved.

Redistribution and use in source and binary forms, with or without
modification, are permitted provided that the following conditions are met:

1. Redistributions of source code must retain the above copyright notice, this
list of conditions and the following disclaimer.

2. Redistributions in binary form must reproduce the above copyright notice,
this list of conditions and the following disclaimer in the documentation
and/or other materials provided with the distribution.

3. Neither the name of the copyright holder nor the names of its
contributors may be used to endorse or promote products derived from
this software without specific prior written permission.

THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
*/

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/npillmayer/arbor"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/term"
)

// tracer writes to trace with key 'arbor.report'
func tracer() tracing.Trace {
	return tracing.Select("arbor.report")
}

// A score below this is rendered in the warning color. Matches the
// stores' default locality floor.
const warnScore = 0.7

// LocalityReport is a point-in-time snapshot of a store's layout
// quality.
type LocalityReport struct {
	Slots     int // backing entries, including tombstones
	Size      int // live nodes
	Score     float64
	Epoch     uint64
	Relayouts uint64
	Ops       int // mutations since the last re-layout
}

// LocalitySource is the surface Snapshot reads. Both store flavors
// satisfy it.
type LocalitySource interface {
	Size() int
	LocalityScore() float64
	Epoch() uint64
	Ops() int
	Relayouts() uint64
}

// Snapshot builds a LocalityReport from a live store. Stores that keep
// tombstoned backing entries report them through an optional
// Slots() method; for everything else Slots equals Size.
func Snapshot(src LocalitySource) LocalityReport {
	rep := LocalityReport{
		Size:      src.Size(),
		Score:     src.LocalityScore(),
		Epoch:     src.Epoch(),
		Ops:       src.Ops(),
		Relayouts: src.Relayouts(),
	}
	rep.Slots = rep.Size
	if s, ok := src.(interface{ Slots() int }); ok {
		rep.Slots = s.Slots()
	}
	return rep
}

// MemoryReport compares a compact layout against a conventional pointer
// tree.
type MemoryReport struct {
	CompactBytes int
	PointerBytes int // estimated
	Ratio        float64
}

// MemorySource is the surface MemorySnapshot reads. Encodings and
// stores satisfy it.
type MemorySource interface {
	MemoryUsage() int
	CompressionRatio() float64
}

// MemorySnapshot builds a MemoryReport from anything that can estimate
// its memory footprint.
func MemorySnapshot(src MemorySource) MemoryReport {
	rep := MemoryReport{
		CompactBytes: src.MemoryUsage(),
		Ratio:        src.CompressionRatio(),
	}
	if rep.Ratio > 0 {
		rep.PointerBytes = int(float64(rep.CompactBytes)/rep.Ratio + 0.5)
	}
	return rep
}

// Formatter renders reports with a fixed rule width and a small color
// palette.
type Formatter struct {
	width    int
	headline *color.Color
	label    *color.Color
	warn     *color.Color
}

// Option adjusts a Formatter during construction.
type Option func(*Formatter)

// WithWidth fixes the rule width instead of reading it from the
// terminal. Widths below 10 are raised to 10.
func WithWidth(w int) Option {
	return func(f *Formatter) {
		if w < 10 {
			w = 10
		}
		f.width = w
	}
}

// WithColors replaces the default palette. Nil entries keep their
// default.
func WithColors(headline, label, warn *color.Color) Option {
	return func(f *Formatter) {
		if headline != nil {
			f.headline = headline
		}
		if label != nil {
			f.label = label
		}
		if warn != nil {
			f.warn = warn
		}
	}
}

// NewFormatter creates a formatter. Without options the rule width is
// taken from the current terminal.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{
		width:    ruleWidthFromTerminal(),
		headline: color.New(color.FgCyan, color.Bold),
		label:    color.New(color.FgBlue),
		warn:     color.New(color.FgRed, color.Bold),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ruleWidthFromTerminal checks whether stdout is a terminal and derives
// a usable rule width from its size.
func ruleWidthFromTerminal() int {
	width := 65
	if term.IsTerminal(0) {
		if w, _, err := term.GetSize(0); err == nil {
			switch {
			case w > 65:
				width = w - 10
			case w > 30:
				width = w - 5
			case w > 10:
				width = w
			default:
				width = 10
			}
		}
	}
	tracer().P("format", "report").Debugf("setting rule width to %d", width)
	return width
}

func (f *Formatter) rule(title string) string {
	head := "-- " + title + " "
	if pad := f.width - len([]rune(head)); pad > 0 {
		head += strings.Repeat("-", pad)
	}
	return head
}

func (f *Formatter) line(buf *bytes.Buffer, label, format string, args ...interface{}) {
	fmt.Fprintf(buf, " %s %s\n", f.label.Sprintf("%-11s", label), fmt.Sprintf(format, args...))
}

// FormatStats renders structural statistics under a titled rule.
func (f *Formatter) FormatStats(w io.Writer, title string, s arbor.Stats) error {
	var buf bytes.Buffer
	f.headline.Fprintln(&buf, f.rule(title))
	f.line(&buf, "nodes", "%d (%d leaves, %d internal)", s.TotalNodes, s.LeafNodes, s.InternalNodes)
	f.line(&buf, "depth", "%d", s.MaxDepth)
	f.line(&buf, "fan-out", "max %d / min %d / avg %.1f", s.MaxChildren, s.MinChildren, s.AvgChildren)
	f.line(&buf, "rebalances", "%d", s.Rebalances)
	_, err := buf.WriteTo(w)
	return err
}

// FormatLocality renders a locality snapshot under a titled rule. Scores
// below 0.7 are rendered in the warning color.
func (f *Formatter) FormatLocality(w io.Writer, title string, rep LocalityReport) error {
	var buf bytes.Buffer
	f.headline.Fprintln(&buf, f.rule(title))
	if rep.Slots != rep.Size {
		f.line(&buf, "layout", "%d live of %d slots", rep.Size, rep.Slots)
	} else {
		f.line(&buf, "layout", "%d nodes", rep.Size)
	}
	score := fmt.Sprintf("%.3f", rep.Score)
	if rep.Score < warnScore {
		score = f.warn.Sprint(score)
	}
	f.line(&buf, "score", "%s", score)
	f.line(&buf, "epoch", "%d", rep.Epoch)
	f.line(&buf, "re-layouts", "%d (%d ops since)", rep.Relayouts, rep.Ops)
	_, err := buf.WriteTo(w)
	return err
}

// FormatMemory renders a memory comparison under a titled rule.
func (f *Formatter) FormatMemory(w io.Writer, title string, rep MemoryReport) error {
	var buf bytes.Buffer
	f.headline.Fprintln(&buf, f.rule(title))
	f.line(&buf, "compact", "%s", formatBytes(rep.CompactBytes))
	f.line(&buf, "pointer", "%s (estimated)", formatBytes(rep.PointerBytes))
	if rep.Ratio > 0 && rep.Ratio < 1 {
		f.line(&buf, "ratio", "%.2f (%.0f%% saved)", rep.Ratio, (1-rep.Ratio)*100)
	} else {
		f.line(&buf, "ratio", "%.2f", rep.Ratio)
	}
	_, err := buf.WriteTo(w)
	return err
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

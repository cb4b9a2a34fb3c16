package view

import (
	"fmt"
	"io"
	"strings"

	"jitview/internal/disasm"
	"jitview/internal/dump"
)

// Stats summarizes a dump.
type Stats struct {
	Architecture      string
	Blocks            int
	CodeBytes         uint64
	Instructions      int
	RelativeBranches  int
	LabeledBranches   int
	PlacedLabels      int
	LargestBlockPC    uint64
	LargestBlockBytes uint64
	Truncated         *dump.TruncatedBlockError
}

// StatsRenderer accumulates Stats and writes a markdown report on End.
type StatsRenderer struct {
	w     io.Writer
	stats Stats
}

func NewStatsRenderer(w io.Writer) *StatsRenderer {
	return &StatsRenderer{w: w}
}

// Stats returns the counters gathered so far.
func (r *StatsRenderer) Stats() Stats {
	return r.stats
}

func (r *StatsRenderer) Begin(arch string) error {
	r.stats.Architecture = arch
	return nil
}

func (r *StatsRenderer) RenderBlock(l Listing) error {
	var size uint64
	for _, ln := range l.Lines {
		size += uint64(ln.Len)
		if ln.Groups.Has(disasm.GroupBranchRelative) {
			r.stats.RelativeBranches++
		}
		if ln.Target != "" {
			r.stats.LabeledBranches++
		}
		if ln.Label != "" {
			r.stats.PlacedLabels++
		}
	}

	r.stats.Blocks++
	r.stats.CodeBytes += size
	r.stats.Instructions += len(l.Lines)
	if r.stats.Blocks == 1 || size > r.stats.LargestBlockBytes {
		r.stats.LargestBlockPC = l.PC
		r.stats.LargestBlockBytes = size
	}
	return nil
}

func (r *StatsRenderer) Truncated(err *dump.TruncatedBlockError) error {
	r.stats.Truncated = err
	return nil
}

func (r *StatsRenderer) End() error {
	_, err := io.WriteString(r.w, r.stats.Markdown())
	return err
}

// Markdown formats the summary as a markdown document.
func (s Stats) Markdown() string {
	var b strings.Builder
	b.WriteString("# JIT dump\n\n")
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Architecture | `%s` |\n", s.Architecture)
	fmt.Fprintf(&b, "| Blocks | %d |\n", s.Blocks)
	fmt.Fprintf(&b, "| Code bytes | %d |\n", s.CodeBytes)
	fmt.Fprintf(&b, "| Instructions | %d |\n", s.Instructions)
	fmt.Fprintf(&b, "| Relative branches | %d |\n", s.RelativeBranches)
	fmt.Fprintf(&b, "| Labeled branches | %d |\n", s.LabeledBranches)
	fmt.Fprintf(&b, "| Labels placed | %d |\n", s.PlacedLabels)
	if s.Blocks > 0 {
		fmt.Fprintf(&b, "| Largest block | `0x%x` (%d bytes) |\n", s.LargestBlockPC, s.LargestBlockBytes)
	}
	if s.Truncated != nil {
		fmt.Fprintf(&b, "\n> %s: %d of %d bytes present\n", s.Truncated.Error(), s.Truncated.Available, s.Truncated.Size)
	}
	return b.String()
}

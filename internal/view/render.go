package view

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"jitview/internal/dump"
)

// Renderer receives the events of one dump in order: Begin once, RenderBlock
// per block, Truncated at most once, then End.
type Renderer interface {
	Begin(arch string) error
	RenderBlock(l Listing) error
	Truncated(err *dump.TruncatedBlockError) error
	End() error
}

// mnemonicWidth is the minimum padded width of a mnemonic column.
const mnemonicWidth = 6

// PadMnemonic left-justifies m to the mnemonic column. Longer mnemonics are
// kept whole.
func PadMnemonic(m string) string {
	if len(m) >= mnemonicWidth {
		return m
	}
	return m + strings.Repeat(" ", mnemonicWidth-len(m))
}

// FormatLine returns the instruction line for l without a trailing newline.
func FormatLine(l Line) string {
	s := "    " + PadMnemonic(l.Mnemonic) + " " + l.Operands
	if l.Target != "" {
		s += "   // " + l.Target
	}
	return s
}

// FormatLabel returns the label line emitted before a branch target.
func FormatLabel(label string) string {
	return "  " + label + ":"
}

// FormatBlockHeader returns the first line of a block.
func FormatBlockHeader(pc uint64) string {
	return fmt.Sprintf("PC 0x%x:", pc)
}

// ColorizerFactory builds a line colorizer once the architecture is known.
type ColorizerFactory func(arch string) func(line string) string

// TextRenderer writes the line-oriented listing.
type TextRenderer struct {
	w           *bufio.Writer
	newColorize ColorizerFactory
	colorize    func(string) string
}

// TextOption configures a TextRenderer.
type TextOption func(*TextRenderer)

// WithColorizer post-processes every label and instruction line with the
// colorizer built for the dump's architecture.
func WithColorizer(fn ColorizerFactory) TextOption {
	return func(r *TextRenderer) {
		r.newColorize = fn
	}
}

func NewTextRenderer(w io.Writer, opts ...TextOption) *TextRenderer {
	r := &TextRenderer{w: bufio.NewWriter(w)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TextRenderer) line(s string) {
	r.w.WriteString(s)
	r.w.WriteByte('\n')
}

func (r *TextRenderer) paint(s string) string {
	if r.colorize == nil {
		return s
	}
	return r.colorize(s)
}

func (r *TextRenderer) Begin(arch string) error {
	if r.newColorize != nil {
		r.colorize = r.newColorize(arch)
	}
	r.line("architecture: " + arch)
	return r.w.Flush()
}

func (r *TextRenderer) RenderBlock(l Listing) error {
	r.line(FormatBlockHeader(l.PC))
	for _, ln := range l.Lines {
		if ln.Label != "" {
			r.line(r.paint(FormatLabel(ln.Label)))
		}
		r.line(r.paint(FormatLine(ln)))
	}
	r.line("")
	return r.w.Flush()
}

func (r *TextRenderer) Truncated(err *dump.TruncatedBlockError) error {
	r.line(err.Error())
	return r.w.Flush()
}

func (r *TextRenderer) End() error {
	return r.w.Flush()
}

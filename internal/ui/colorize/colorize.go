// Package colorize adds ANSI colors to rendered listing lines.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const (
	labelColor = "\033[38;2;255;215;0m" // gold, matches NameLabel in DisasmDark
	resetColor = "\033[0m"
)

// commentSep separates an instruction from its branch-label comment.
const commentSep = "   // "

// lexerCandidates lists assembly lexers per architecture, best first.
var lexerCandidates = map[string][]string{
	"aarch64": {"armasm", "gas", "nasm"},
	"x64":     {"nasm", "gas"},
}

// getAssemblyLexer returns an appropriate assembly lexer with fallbacks
func getAssemblyLexer(arch string) chroma.Lexer {
	candidates, ok := lexerCandidates[arch]
	if !ok {
		candidates = []string{"gas", "nasm"}
	}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getDisasmStyle returns the disassembly style with fallbacks
func getDisasmStyle() *chroma.Style {
	for _, name := range []string{"jitview-dark", "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Disabled reports whether JITVIEW_NO_COLOR is set.
func Disabled() bool {
	return os.Getenv("JITVIEW_NO_COLOR") != ""
}

// Colorizer highlights listing lines for one architecture.
type Colorizer struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// New returns a Colorizer for the named architecture ("aarch64", "x64").
func New(arch string) *Colorizer {
	return &Colorizer{
		lexer:     getAssemblyLexer(arch),
		style:     getDisasmStyle(),
		formatter: getTerminalFormatter(),
	}
}

// Line colors a label line or an instruction line. Block headers and blank
// lines are never passed in.
func (c *Colorizer) Line(line string) string {
	if Disabled() {
		return line
	}

	if IsLabelLine(line) {
		return labelColor + line + resetColor
	}

	code, comment, hasComment := strings.Cut(line, commentSep)
	out := c.highlight(code)
	if hasComment {
		out += fmt.Sprintf("%s%s%s%s", labelColor, commentSep, comment, resetColor)
	}
	return out
}

// IsLabelLine reports whether line is a "  name:" label line.
func IsLabelLine(line string) bool {
	return strings.HasPrefix(line, "  ") && !strings.HasPrefix(line, "   ") && strings.HasSuffix(line, ":")
}

func (c *Colorizer) highlight(code string) string {
	if c.lexer == nil {
		return code
	}

	iterator, err := c.lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := c.formatter.Format(&buf, c.style, iterator); err != nil {
		return code
	}
	// some lexers append a newline to their input
	return strings.ReplaceAll(buf.String(), "\n", "")
}

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\x1b' {
			inEscape = true
		} else if inEscape {
			if r == 'm' {
				inEscape = false
			}
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

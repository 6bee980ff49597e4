// Package colorize applies terminal colors to annotated word dumps.
package colorize

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// getDumpLexer returns a lexer suited to offset/value dump lines
func getDumpLexer() chroma.Lexer {
	candidates := []string{"hexdump", "Hexdump"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getDumpStyle returns the dump style with fallbacks
func getDumpStyle() *chroma.Style {
	candidates := []string{"dump-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeDump applies syntax highlighting to a block of dump lines.
// Returns the input unchanged when colors are disabled or no lexer is
// available.
func ColorizeDump(text string) (string, error) {
	if os.Getenv("XEXFIND_NO_COLOR") != "" {
		return text, nil
	}

	lexer := getDumpLexer()
	if lexer == nil {
		return text, nil
	}

	style := getDumpStyle()
	formatter := getTerminalFormatter()

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text, err
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text, err
	}

	return buf.String(), nil
}

// ColorizeDumpLine colorizes a single dump line, falling back to the plain
// line on any failure.
func ColorizeDumpLine(line string) string {
	out, err := ColorizeDump(line)
	if err != nil {
		return line
	}
	return strings.TrimSuffix(out, "\n")
}

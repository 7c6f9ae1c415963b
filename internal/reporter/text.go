package reporter

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/wharflab/trivet/internal/rules"
)

// detectColors decides whether styled output is appropriate.
// CLICOLOR_FORCE wins; otherwise the environment profile (NO_COLOR, TERM)
// must allow color AND stdout must be a terminal, so piped output stays plain.
func detectColors() bool {
	if force := os.Getenv("CLICOLOR_FORCE"); force != "" && force != "0" {
		return true
	}
	return termenv.EnvColorProfile() != termenv.Ascii && isatty.IsTerminal(os.Stdout.Fd())
}

var (
	useColors = detectColors()

	ruleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))              // red
	docStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)          // blue
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))                         // white
	fileHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))              // light gray
	gutterStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))                         // dark gray
	sepStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))                         // darker gray
	hitStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))              // red

	sevStyles = map[rules.Severity]lipgloss.Style{
		rules.SeverityError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")), // red
		rules.SeverityWarning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")), // orange
		rules.SeverityInfo:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),  // blue
		rules.SeverityStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")), // gray
	}
)

// Separator rules below the file:line header.
const (
	styledRule = "────────────────────"
	plainRule  = "--------------------"
)

// TextOptions configures the text reporter output.
type TextOptions struct {
	// Color enables/disables colored output. Default: auto-detect.
	Color *bool

	// SyntaxHighlight enables C# syntax highlighting in snippets.
	SyntaxHighlight bool

	// ShowSource shows source code snippets. Default: true.
	ShowSource bool

	// ChromaStyle is the Chroma style name for syntax highlighting.
	// Default: "monokai" for dark terminals, "github" for light.
	ChromaStyle string
}

// DefaultTextOptions returns sensible defaults for text output.
func DefaultTextOptions() TextOptions {
	return TextOptions{
		Color:           nil, // auto-detect
		SyntaxHighlight: true,
		ShowSource:      true,
		ChromaStyle:     "", // auto-detect
	}
}

// TextReporter renders violations as styled terminal text.
type TextReporter struct {
	opts      TextOptions
	colors    bool
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// NewTextReporter creates a text reporter. Syntax highlighting machinery
// is only set up when colors are on.
func NewTextReporter(opts TextOptions) *TextReporter {
	r := &TextReporter{opts: opts, colors: useColors}
	if opts.Color != nil {
		r.colors = *opts.Color
	}

	if r.colors && opts.SyntaxHighlight {
		r.lexer = lexers.Get("csharp")
		if r.lexer == nil {
			r.lexer = lexers.Fallback
		}
		r.lexer = chroma.Coalesce(r.lexer)

		styleName := opts.ChromaStyle
		if styleName == "" {
			if lipgloss.HasDarkBackground() {
				styleName = "monokai"
			} else {
				styleName = "github"
			}
		}
		r.style = styles.Get(styleName)
		if r.style == nil {
			r.style = styles.Fallback
		}

		r.formatter = formatters.Get("terminal256")
		if r.formatter == nil {
			r.formatter = formatters.Fallback
		}
	}

	return r
}

// Print writes violations to the writer, ordered by file then line.
func (r *TextReporter) Print(w io.Writer, violations []rules.Violation, sources map[string][]byte) error {
	sorted := slices.Clone(violations)
	slices.SortFunc(sorted, func(a, b rules.Violation) int {
		if c := strings.Compare(a.Location.File, b.Location.File); c != 0 {
			return c
		}
		return cmp.Compare(a.Location.Start.Line, b.Location.Start.Line)
	})

	for _, v := range sorted {
		if err := r.printViolation(w, v, sources[v.Location.File]); err != nil {
			return err
		}
	}
	return nil
}

// printViolation writes one violation: header, message, and (when the
// source is known) the annotated snippet.
func (r *TextReporter) printViolation(w io.Writer, v rules.Violation, source []byte) error {
	fmt.Fprintln(w, r.headerLine(v))

	if r.colors {
		fmt.Fprintln(w, msgStyle.Render(v.Message))
	} else {
		fmt.Fprintln(w, v.Message)
	}

	if r.opts.ShowSource && !v.Location.IsFileLevel() && len(source) > 0 {
		r.printSource(w, v.Location, source)
	}

	return nil
}

// headerLine formats the "SEVERITY: rule - url" line, preceded by a blank
// line to separate violations.
func (r *TextReporter) headerLine(v rules.Violation) string {
	label := strings.ToUpper(v.Severity.String())

	if !r.colors {
		header := fmt.Sprintf("\n%s: %s", label, v.RuleCode)
		if v.DocURL != "" {
			header += " - " + v.DocURL
		}
		return header
	}

	sev, ok := sevStyles[v.Severity]
	if !ok {
		sev = sevStyles[rules.SeverityWarning]
	}
	header := fmt.Sprintf("\n%s %s", sev.Render(label+":"), ruleStyle.Render(v.RuleCode))
	if v.DocURL != "" {
		header += " - " + docStyle.Render(v.DocURL)
	}
	return header
}

// printSource renders the snippet around loc with line numbers and >>>
// markers on the affected lines.
func (r *TextReporter) printSource(w io.Writer, loc rules.Location, source []byte) {
	lines := strings.Split(string(source), "\n")
	start, end, displayStart, ok := contextBounds(loc, len(lines))
	if !ok {
		return
	}

	fmt.Fprintln(w)
	if r.colors {
		fmt.Fprintln(w, fileHeadStyle.Render(fmt.Sprintf("%s:%d", loc.File, displayStart)))
		fmt.Fprintln(w, sepStyle.Render(styledRule))
	} else {
		fmt.Fprintf(w, "%s:%d\n", loc.File, displayStart)
		fmt.Fprintln(w, plainRule)
	}

	for i := start; i <= end; i++ {
		// Trim CR so CRLF sources render without artifacts.
		text := strings.TrimSuffix(lines[i-1], "\r")
		r.printSourceLine(w, i, text, lineInRange(i, loc.Start.Line, loc.End.Line))
	}

	if r.colors {
		fmt.Fprintln(w, sepStyle.Render(styledRule))
	} else {
		fmt.Fprintln(w, plainRule)
	}
}

// printSourceLine writes one gutter-numbered line of the snippet.
func (r *TextReporter) printSourceLine(w io.Writer, num int, text string, affected bool) {
	gutter := fmt.Sprintf(" %3d |", num)
	marker := "   "
	if affected {
		marker = ">>>"
	}

	if r.colors {
		gutter = gutterStyle.Render(fmt.Sprintf(" %3d │", num))
		if affected {
			marker = hitStyle.Render(">>>")
		}
		if r.lexer != nil && r.style != nil && r.formatter != nil {
			text = r.highlightLine(text)
		}
	}

	fmt.Fprintf(w, "%s %s %s\n", gutter, marker, text)
}

// contextBounds widens the violation's line range with surrounding
// context: four extra lines for a single-line location, two for a range.
// displayStart is the pre-expansion start line, shown in the header. ok is
// false when the location lies outside the file.
func contextBounds(loc rules.Location, lineCount int) (start, end, displayStart int, ok bool) {
	start = loc.Start.Line
	end = loc.End.Line
	if loc.IsPointLocation() || end < start {
		end = start
	}

	if start > lineCount || start < 1 {
		return 0, 0, 0, false
	}
	if end > lineCount {
		end = lineCount
	}

	pad := 2
	if end == start {
		pad = 4
	}
	displayStart = start

	for added := 0; added < pad; {
		grew := false
		if start > 1 {
			start--
			added++
			grew = true
		}
		if end < lineCount {
			end++
			added++
			grew = true
		}
		if !grew {
			break
		}
	}

	return start, end, displayStart, true
}

// highlightLine runs one line through chroma. Any tokenizer or formatter
// error falls back to the raw text.
func (r *TextReporter) highlightLine(line string) string {
	iterator, err := r.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return line
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// PrintText writes violations with default styling.
func PrintText(w io.Writer, violations []rules.Violation, sources map[string][]byte) error {
	return NewTextReporter(DefaultTextOptions()).Print(w, violations, sources)
}

// PrintTextPlain writes violations without any styling (for non-TTY output).
func PrintTextPlain(w io.Writer, violations []rules.Violation, sources map[string][]byte) error {
	noColor := false
	return NewTextReporter(TextOptions{
		Color:           &noColor,
		SyntaxHighlight: false,
		ShowSource:      true,
	}).Print(w, violations, sources)
}

// lineInRange reports whether a 1-based line falls inside [start, end].
// A degenerate range (end before start) collapses to the start line.
func lineInRange(line, start, end int) bool {
	if end < start {
		end = start
	}
	return line >= start && line <= end
}

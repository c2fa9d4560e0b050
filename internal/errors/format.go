package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vango-dev/waypoint/internal/style"
)

// textWidth is the wrap width for detail text in Format.
const textWidth = 72

// DisableColors renders Format output without styling.
func DisableColors() { style.SetPlain(true) }

// EnableColors restores styling to the detected terminal profile.
func EnableColors() { style.SetPlain(false) }

// Format renders e for a terminal: a code header, the offending manifest
// or config lines with a caret under the column, then detail, cause,
// hint, example and documentation link.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(e.header())
	b.WriteString("\n\n")

	if e.Location != nil {
		fmt.Fprintf(&b, "  %s\n", style.Where.Render(e.Location.String()))
		e.writeSource(&b)
		b.WriteString("\n")
	}

	if e.Detail != "" {
		b.WriteString(style.Block(textWidth, 2).Render(e.Detail))
		b.WriteString("\n\n")
	}

	labeled := []struct{ label, text string }{
		{"Cause", causeText(e.Wrapped)},
		{"Hint", e.Suggestion},
	}
	for _, l := range labeled {
		if l.text != "" {
			fmt.Fprintf(&b, "  %s %s\n\n", style.Muted.Render(l.label+":"), l.text)
		}
	}

	if e.Example != "" {
		fmt.Fprintf(&b, "  %s\n", style.Muted.Render("Example:"))
		for _, line := range strings.Split(e.Example, "\n") {
			fmt.Fprintf(&b, "    %s\n", line)
		}
		b.WriteString("\n")
	}

	if e.DocURL != "" {
		fmt.Fprintf(&b, "  %s %s\n", style.Muted.Render("Learn more:"), style.Link.Render(e.DocURL))
	}

	return b.String()
}

func (e *Error) header() string {
	label := style.Code.Render("ERROR")
	if e.Code == "" {
		return label + style.Code.Render(":") + " " + e.Message
	}
	return label + " " + style.Route.Render(e.Code+":") + " " + e.Message
}

// writeSource prints the context lines with a gutter, marking the
// location's line and column.
func (e *Error) writeSource(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	gutter := style.Muted.Render(" | ")
	for i, text := range e.Context {
		n := e.ContextStart + i
		marker := "  "
		if n == e.Location.Line {
			marker = style.Error.Render("> ")
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", marker, n, gutter, text)

		if n == e.Location.Line && e.Location.Column > 0 {
			pad := strings.Repeat(" ", e.Location.Column-1)
			fmt.Fprintf(b, "  %6s%s%s%s\n", "", gutter, pad, style.Error.Render("^"))
		}
	}
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// FormatCompact renders e on one line: "file:line:col: CODE: message",
// followed by the cause in parentheses when there is one.
func (e *Error) FormatCompact() string {
	parts := make([]string, 0, 3)
	if loc := e.Location.String(); loc != "" {
		parts = append(parts, loc)
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)

	out := strings.Join(parts, ": ")
	if e.Wrapped != nil {
		out += " (" + e.Wrapped.Error() + ")"
	}
	return out
}

// jsonError is the wire form of an Error.
type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Cause      string    `json:"cause,omitempty"`
	DocURL     string    `json:"docUrl,omitempty"`
}

// FormatJSON returns the error as a JSON object.
func (e *Error) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
		Cause:      causeText(e.Wrapped),
		DocURL:     e.DocURL,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}

// Fprint writes a formatted error to w. Errors that are not an *Error get
// the header line only.
func Fprint(w io.Writer, err error) {
	var e *Error
	if errors.As(err, &e) {
		fmt.Fprint(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", style.Code.Render("ERROR:"), err.Error())
}

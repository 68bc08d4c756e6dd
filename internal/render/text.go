package render

import (
	"bytes"
	"encoding/json"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/alecthomas/chroma/quick"
	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/glamour"

	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/liquer"
)

type Options struct {
	Width int
	// MarkdownStyle is a glamour standard style such as "dark", "light" or
	// "notty".
	MarkdownStyle string
	// HighlightStyle is a chroma style; empty disables highlighting.
	HighlightStyle string
}

func DefaultOptions() Options {
	return Options{Width: 100, MarkdownStyle: "dark", HighlightStyle: "monokai"}
}

func (o Options) wrap() int {
	if o.Width <= 0 {
		return 80
	}
	return o.Width
}

// Markdown renders md for the terminal.
func Markdown(md string, opts Options) (string, error) {
	style := opts.MarkdownStyle
	if style == "" {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(opts.wrap()),
	)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeUnknown, err, "markdown renderer")
	}
	out, err := r.Render(md)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeParse, err, "render markdown")
	}
	return out, nil
}

// HTMLToMarkdown converts an html payload, such as a server error page, to
// markdown.
func HTMLToMarkdown(html string) (string, error) {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeParse, err, "convert html")
	}
	return strings.TrimSpace(md), nil
}

func HTML(html string, opts Options) (string, error) {
	md, err := HTMLToMarkdown(html)
	if err != nil {
		return "", err
	}
	return Markdown(md, opts)
}

// Highlight colours source as language. Unknown languages and a blank
// style return the source unchanged.
func Highlight(source, language string, opts Options) string {
	if opts.HighlightStyle == "" || language == "" {
		return source
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, source, language, "terminal256", opts.HighlightStyle); err != nil {
		return source
	}
	return buf.String()
}

// JSON pretty prints data and highlights it.
func JSON(data []byte, opts Options) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return string(data)
	}
	return Highlight(buf.String(), "json", opts)
}

// Value renders a decoded json value.
func Value(v any, opts Options) string {
	data, err := json.Marshal(v)
	if err != nil {
		return liquer.FormatCell(v)
	}
	return JSON(data, opts)
}

// Diff returns a unified diff of two texts, or "" when they are equal.
func Diff(oldLabel, newLabel, before, after string) string {
	before = withNewline(before)
	after = withNewline(after)
	if before == after {
		return ""
	}
	return udiff.Unified(oldLabel, newLabel, before, after)
}

// StateDiff compares two states of a query by their indented json.
func StateDiff(prev, next *liquer.State) string {
	if prev == nil || next == nil {
		return ""
	}
	return Diff("previous", "current", indentState(prev), indentState(next))
}

func indentState(st *liquer.State) string {
	raw := st.Raw
	if len(raw) == 0 {
		b, err := json.Marshal(st)
		if err != nil {
			return ""
		}
		raw = b
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

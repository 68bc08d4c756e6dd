package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/liquer"
	"github.com/orest-d/liquer/internal/poller"
	"github.com/orest-d/liquer/internal/render"
)

// cliRender keeps terminal output free of colour so it can be piped.
var cliRender = render.Options{Width: 100, MarkdownStyle: "notty"}

// viewError turns a failed navigation into an error. Server error pages are
// reported by the caller.
func viewError(v poller.View) error {
	if v.Phase != poller.PhaseFailed && v.Status != poller.StatusError {
		return nil
	}
	parts := []string{}
	for _, s := range []string{v.Message, v.Detail} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("evaluation of %q failed with status %s", v.Query, metadataStatus(v)))
	}
	return errdef.New(errdef.CodeUnknown, "%s", strings.Join(parts, ": "))
}

func (a *app) printView(ctx context.Context, v poller.View) error {
	if err := viewError(v); err != nil {
		if v.HTML != "" {
			if md, mdErr := render.HTMLToMarkdown(v.HTML); mdErr == nil && md != "" {
				fmt.Fprintln(a.stderr, md)
			}
		}
		return err
	}

	format := a.outputFormat()
	switch {
	case v.DataFrame != nil:
		return render.DataFrame(a.stdout, v.DataFrame, format)
	case v.RawData != nil:
		return a.printJSON(v.RawData)
	case v.ContentPath != "":
		payload, err := a.client.Fetch(ctx, v.ContentPath)
		if err != nil {
			return err
		}
		return a.printPayload(payload)
	case v.ExternalLink != "":
		fmt.Fprintln(a.stdout, v.ExternalLink)
		return nil
	case v.State != nil:
		return a.printState(v.State)
	}
	fmt.Fprintln(a.stderr, "no result")
	return nil
}

func (a *app) printJSON(raw []byte) error {
	fmt.Fprint(a.stdout, withNewline(render.JSON(raw, cliRender)))
	return nil
}

func (a *app) printPayload(p *liquer.Payload) error {
	ct := strings.ToLower(p.ContentType)
	switch {
	case strings.Contains(ct, "html"):
		out, err := render.HTML(string(p.Body), cliRender)
		if err != nil {
			return err
		}
		fmt.Fprint(a.stdout, withNewline(out))
	case strings.Contains(ct, "json"):
		return a.printJSON(p.Body)
	case strings.HasPrefix(ct, "text/"), ct == "":
		fmt.Fprint(a.stdout, withNewline(string(p.Body)))
	default:
		fmt.Fprintf(a.stdout, "%s (%s, %d bytes)\n", p.URL, p.ContentType, len(p.Body))
		fmt.Fprintln(a.stderr, "use --out to save binary content")
	}
	return nil
}

func (a *app) printState(st *liquer.State) error {
	if a.outputFormat() == render.FormatJSON {
		if len(st.Raw) > 0 {
			return a.printJSON(st.Raw)
		}
		return writeJSON(a.stdout, st)
	}
	rows := [][]string{}
	for _, kv := range [][2]string{
		{"query", st.Query},
		{"status", string(st.Status)},
		{"type", st.TypeIdentifier},
		{"extension", st.Extension},
		{"title", st.Title},
		{"description", st.Description},
		{"message", st.Message},
	} {
		if kv[1] != "" {
			rows = append(rows, []string{kv[0], kv[1]})
		}
	}
	return render.Records(a.stdout, []string{"Field", "Value"}, rows, a.outputFormat())
}

func (a *app) printMetadata(meta *liquer.Metadata) error {
	if meta == nil {
		meta = liquer.UndefinedMetadata()
	}
	format := a.outputFormat()
	if format == render.FormatJSON {
		return writeJSON(a.stdout, meta)
	}
	rows := [][]string{{"status", string(meta.Status)}}
	for _, kv := range [][2]string{
		{"query", meta.Query},
		{"type", meta.TypeIdentifier},
		{"key", meta.Key},
		{"title", meta.Title},
		{"message", meta.Message},
	} {
		if kv[1] != "" {
			rows = append(rows, []string{kv[0], kv[1]})
		}
	}
	if err := render.Records(a.stdout, []string{"Field", "Value"}, rows, format); err != nil {
		return err
	}
	if len(meta.Log) == 0 {
		return nil
	}
	logRows := make([][]string, 0, len(meta.Log))
	for _, e := range meta.Log {
		logRows = append(logRows, []string{e.Kind, e.Message, e.Timestamp})
	}
	fmt.Fprintln(a.stdout)
	return render.Records(a.stdout, []string{"Kind", "Message", "Timestamp"}, logRows, format)
}

// saveContent writes the result of v to path. Inline results are written
// as received; linked results are downloaded.
func (a *app) saveContent(ctx context.Context, v poller.View, path string) error {
	if err := viewError(v); err != nil {
		return err
	}
	var (
		data   []byte
		source string
	)
	switch {
	case v.ContentPath != "":
		payload, err := a.client.Fetch(ctx, v.ContentPath)
		if err != nil {
			return err
		}
		data, source = payload.Body, payload.URL
	case v.RawData != nil:
		data, source = v.RawData, v.Query
	default:
		return errdef.New(errdef.CodeUnknown, "query %q has no content to save", v.Query)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errdef.Wrap(errdef.CodeFilesystem, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write %s", path)
	}
	a.logger.Info("content saved", zap.String("source", source), zap.String("path", path), zap.Int("bytes", len(data)))
	fmt.Fprintf(a.stderr, "saved %s (%d bytes) to %s\n", source, len(data), path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Package query models liquer query paths: slash separated segments where an
// optional trailing segment names the file (and thereby the format) of the
// result.
package query

import "strings"

// Query is a parsed query path.
type Query struct {
	Raw       string
	Segments  []string
	Basis     string
	Filename  string
	Extension string
}

// Parse splits raw into its derived parts. The trailing segment is treated
// as a filename only when it contains a dot and no dash; dashes mark
// command arguments in liquer, so "report-final" stays part of the query.
func Parse(raw string) Query {
	q := Query{Raw: raw, Basis: raw, Segments: Segments(raw)}
	if len(q.Segments) == 0 {
		return q
	}

	last := q.Segments[len(q.Segments)-1]
	q.Filename = strings.ReplaceAll(last, "-", "_")
	if strings.Contains(last, "-") || !strings.Contains(last, ".") {
		return q
	}

	q.Basis = strings.Join(q.Segments[:len(q.Segments)-1], "/")
	parts := strings.Split(last, ".")
	q.Filename = parts[0]
	q.Extension = parts[len(parts)-1]
	return q
}

// Segments returns the non-empty path segments of raw.
func Segments(raw string) []string {
	fields := strings.Split(raw, "/")
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (q Query) IsRoot() bool {
	return len(q.Segments) == 0
}

// HasExtension reports whether the query names an explicit result file.
func (q Query) HasExtension() bool {
	return q.Extension != ""
}

// Sibling returns the path of another file next to the query result, e.g.
// the csv export of a dataframe.
func (q Query) Sibling(ext string) string {
	return Join(q.Basis, q.Filename+"."+ext)
}

// IsExternal reports whether link points outside of the liquer server.
func IsExternal(link string) bool {
	return strings.Contains(link, ":")
}

// Resolve turns a relative navigation link into a query. A leading slash
// makes link absolute; anything else is appended to basis.
func Resolve(basis, link string) string {
	if strings.HasPrefix(link, "/") {
		return link[1:]
	}
	if basis == "" {
		return link
	}
	return basis + "/" + link
}

// Join concatenates query parts, skipping empty ones.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// Parent drops the last segment of raw. The root has no parent.
func Parent(raw string) (string, bool) {
	segs := Segments(raw)
	if len(segs) == 0 {
		return "", false
	}
	return strings.Join(segs[:len(segs)-1], "/"), true
}

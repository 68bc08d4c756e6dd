package liquer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Status is the evaluation status the server reports for a query.
type Status string

const (
	StatusNone                   Status = "none"
	StatusObsolete               Status = "obsolete"
	StatusFinished               Status = "finished"
	StatusReady                  Status = "ready"
	StatusEvaluatingParent       Status = "evaluating parent"
	StatusEvaluatingDependencies Status = "evaluating dependencies"
	StatusEvaluation             Status = "evaluation"
	StatusError                  Status = "error"
	StatusUndefined              Status = "undefined"

	StatusSubmitted    Status = "submitted"
	StatusParent       Status = "parent"
	StatusDependencies Status = "dependencies"
	StatusRecipe       Status = "recipe"
	StatusExpired      Status = "expired"
	StatusExternal     Status = "external"
	StatusSideEffect   Status = "side-effect"
)

// Terminal reports whether polling for this status can stop.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusError
}

// Color groups statuses into the palette used by status indicators.
type Color string

const (
	ColorGray   Color = "gray"
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorOrange Color = "orange"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
)

func (s Status) Color() Color {
	switch s {
	case StatusReady:
		return ColorBlue
	case StatusEvaluatingParent, StatusParent, StatusSubmitted:
		return ColorYellow
	case StatusEvaluatingDependencies, StatusDependencies:
		return ColorOrange
	case StatusEvaluation:
		return ColorGreen
	case StatusError:
		return ColorRed
	default:
		return ColorGray
	}
}

type LogEntry struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
	Traceback string `json:"traceback,omitempty"`
	Query     string `json:"query,omitempty"`
}

type Metadata struct {
	Status         Status     `json:"status"`
	Log            []LogEntry `json:"log"`
	Query          string     `json:"query,omitempty"`
	Key            string     `json:"key,omitempty"`
	TypeIdentifier string     `json:"type_identifier,omitempty"`
	Message        string     `json:"message,omitempty"`
	IsError        bool       `json:"is_error,omitempty"`
	Title          string     `json:"title,omitempty"`
	Description    string     `json:"description,omitempty"`
}

// UndefinedMetadata stands in for a null metadata response.
func UndefinedMetadata() *Metadata {
	return &Metadata{Status: StatusUndefined, Log: []LogEntry{}}
}

// LogTail returns at most the last n log entries.
func (m *Metadata) LogTail(n int) []LogEntry {
	if m == nil || n <= 0 {
		return nil
	}
	if len(m.Log) <= n {
		return m.Log
	}
	return m.Log[len(m.Log)-n:]
}

type MenuItem struct {
	Title string     `json:"title"`
	Link  string     `json:"link,omitempty"`
	Items []MenuItem `json:"items,omitempty"`
}

// State describes a resolved query result. The server sends the full
// metadata dictionary, so the metadata fields are available too.
type State struct {
	Metadata
	Extension  string                     `json:"extension,omitempty"`
	Vars       map[string]json.RawMessage `json:"vars,omitempty"`
	Attributes map[string]json.RawMessage `json:"attributes,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Menu returns vars.menu when present and well formed.
func (s *State) Menu() ([]MenuItem, bool) {
	if s == nil {
		return nil, false
	}
	return decodeMenu(s.Vars["menu"])
}

// ContextMenu returns attributes.context_menu when present and well formed.
func (s *State) ContextMenu() ([]MenuItem, bool) {
	if s == nil {
		return nil, false
	}
	return decodeMenu(s.Attributes["context_menu"])
}

func decodeMenu(raw json.RawMessage) ([]MenuItem, bool) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	var items []MenuItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

type Command struct {
	NS          string `json:"ns"`
	Name        string `json:"name"`
	Label       string `json:"label,omitempty"`
	Module      string `json:"module,omitempty"`
	Doc         string `json:"doc"`
	ExampleLink string `json:"example_link,omitempty"`
}

// QueryStatus is one row of the server's active query listing.
type QueryStatus struct {
	Query   string `json:"query"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Updated string `json:"updated,omitempty"`
	Started string `json:"started,omitempty"`
}

type Field struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// DataFrame is the table-orient JSON produced for dataframe results.
type DataFrame struct {
	Schema struct {
		Fields     []Field  `json:"fields"`
		PrimaryKey []string `json:"primaryKey,omitempty"`
	} `json:"schema"`
	Data []map[string]any `json:"data"`
}

func ParseDataFrame(raw []byte) (*DataFrame, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var df DataFrame
	if err := dec.Decode(&df); err != nil {
		return nil, err
	}
	if len(df.Schema.Fields) == 0 && len(df.Data) > 0 {
		df.Schema.Fields = inferFields(df.Data[0])
	}
	return &df, nil
}

func inferFields(row map[string]any) []Field {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{Name: name}
	}
	return fields
}

func (d *DataFrame) Headers() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.Schema.Fields))
	for i, f := range d.Schema.Fields {
		out[i] = f.Name
	}
	return out
}

// Rows renders every cell as text in schema column order.
func (d *DataFrame) Rows() [][]string {
	if d == nil {
		return nil
	}
	headers := d.Headers()
	rows := make([][]string, 0, len(d.Data))
	for _, rec := range d.Data {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = FormatCell(rec[h])
		}
		rows = append(rows, row)
	}
	return rows
}

func FormatCell(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case json.Number:
		return typed.String()
	case bool:
		if typed {
			return "true"
		}
		return "false"
	case map[string]any, []any:
		b, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(b)
	default:
		return strings.TrimSpace(fmt.Sprint(typed))
	}
}

package bindings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	toml "github.com/pelletier/go-toml/v2"
)

// Format identifies the serialization format of a bindings file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Source describes the file a Map was built from.
type Source struct {
	Path   string
	Format Format
}

// ActionID names something a key can trigger.
type ActionID string

// Binding is one key sequence bound to an action. Steps has one entry for a
// plain key and two for a chord.
type Binding struct {
	Action     ActionID
	Steps      []string
	Repeatable bool
}

// Label renders the steps for help text, showing "?" for shift+/.
func (b Binding) Label() string {
	steps := make([]string, len(b.Steps))
	for i, s := range b.Steps {
		if s == "shift+/" {
			s = "?"
		}
		steps[i] = s
	}
	return strings.Join(steps, " ")
}

func (b Binding) clone() Binding {
	b.Steps = slices.Clone(b.Steps)
	return b
}

type chordKey struct {
	prefix string
	next   string
}

// Map resolves normalized key strings to actions.
type Map struct {
	keys     map[string]Binding
	chords   map[chordKey]Binding
	prefixes map[string]struct{}
	byAction map[ActionID][]Binding
}

type file struct {
	Bindings map[string][]string `json:"bindings" toml:"bindings"`
}

// Load builds the map from bindings.toml or bindings.json in dir, first file
// wins. Without either file the defaults are used.
func Load(dir string) (*Map, Source, error) {
	sources := []Source{
		{Path: filepath.Join(dir, "bindings.toml"), Format: FormatTOML},
		{Path: filepath.Join(dir, "bindings.json"), Format: FormatJSON},
	}
	var readErrs []error
	for _, src := range sources {
		data, err := os.ReadFile(src.Path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			readErrs = append(readErrs, fmt.Errorf("read bindings %q: %w", src.Path, err))
			continue
		}
		overrides, err := parseConfig(data, src.Format)
		if err != nil {
			return nil, Source{}, fmt.Errorf("parse bindings %q: %w", src.Path, err)
		}
		m, err := build(overrides)
		if err != nil {
			return nil, Source{}, fmt.Errorf("apply bindings %q: %w", src.Path, err)
		}
		return m, src, nil
	}
	if err := errors.Join(readErrs...); err != nil {
		return nil, Source{}, err
	}
	m, err := build(nil)
	if err != nil {
		return nil, Source{}, err
	}
	return m, sources[0], nil
}

// DefaultMap returns the built-in bindings. It panics if the defaults
// conflict with each other.
func DefaultMap() *Map {
	m, err := build(nil)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Map) MatchSingle(key string) (Binding, bool) {
	if m == nil {
		return Binding{}, false
	}
	b, ok := m.keys[key]
	if !ok {
		return Binding{}, false
	}
	return b.clone(), true
}

func (m *Map) HasChordPrefix(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.prefixes[key]
	return ok
}

func (m *Map) ResolveChord(prefix, next string) (Binding, bool) {
	if m == nil {
		return Binding{}, false
	}
	b, ok := m.chords[chordKey{prefix: prefix, next: next}]
	if !ok {
		return Binding{}, false
	}
	return b.clone(), true
}

// Bindings lists every sequence bound to action, in definition order.
func (m *Map) Bindings(action ActionID) []Binding {
	if m == nil {
		return nil
	}
	list := m.byAction[action]
	if len(list) == 0 {
		return nil
	}
	out := make([]Binding, len(list))
	for i, b := range list {
		out[i] = b.clone()
	}
	return out
}

func parseConfig(data []byte, format Format) (map[ActionID][][]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var f file
	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatJSON:
		err = json.Unmarshal(data, &f)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}

	out := make(map[ActionID][][]string, len(f.Bindings))
	for name, specs := range f.Bindings {
		id := ActionID(name)
		if _, ok := definitionLookup[id]; !ok {
			return nil, fmt.Errorf("unknown action %q", name)
		}
		seqs := make([][]string, 0, len(specs))
		for _, spec := range specs {
			seq, err := parseSequence(spec)
			if err != nil {
				return nil, fmt.Errorf("action %q: %w", name, err)
			}
			seqs = append(seqs, seq)
		}
		out[id] = seqs
	}
	return out, nil
}

func build(overrides map[ActionID][][]string) (*Map, error) {
	m := &Map{
		keys:     make(map[string]Binding),
		chords:   make(map[chordKey]Binding),
		prefixes: make(map[string]struct{}),
		byAction: make(map[ActionID][]Binding, len(definitions)),
	}
	for _, def := range definitions {
		seqs, ok := overrides[def.id]
		if !ok {
			var err error
			if seqs, err = normalizeDefaults(def.defaults); err != nil {
				return nil, fmt.Errorf("action %s: %w", def.id, err)
			}
		}
		if err := m.add(def, seqs); err != nil {
			return nil, err
		}
	}
	for prefix := range m.prefixes {
		if b, ok := m.keys[prefix]; ok {
			return nil, fmt.Errorf("key %q is a chord prefix and also bound to %s", prefix, b.Action)
		}
	}
	return m, nil
}

func (m *Map) add(def definition, seqs [][]string) error {
	seen := make(map[string]bool, len(seqs))
	for _, seq := range seqs {
		switch {
		case len(seq) == 0:
			continue
		case len(seq) > 2:
			return fmt.Errorf("action %s: bindings may not exceed two steps", def.id)
		case def.singleOnly && len(seq) != 1:
			return fmt.Errorf("action %s only supports single-step bindings", def.id)
		}
		label := strings.Join(seq, " ")
		if seen[label] {
			return fmt.Errorf("action %s: duplicate binding %q", def.id, label)
		}
		seen[label] = true

		b := Binding{
			Action:     def.id,
			Steps:      slices.Clone(seq),
			Repeatable: def.repeatable && len(seq) > 1,
		}
		if len(seq) == 1 {
			if prev, ok := m.keys[seq[0]]; ok {
				return fmt.Errorf("binding %q assigned to both %s and %s", seq[0], prev.Action, def.id)
			}
			m.keys[seq[0]] = b
		} else {
			ck := chordKey{prefix: seq[0], next: seq[1]}
			if prev, ok := m.chords[ck]; ok {
				return fmt.Errorf("binding %q assigned to both %s and %s", label, prev.Action, def.id)
			}
			m.chords[ck] = b
			m.prefixes[ck.prefix] = struct{}{}
		}
		m.byAction[def.id] = append(m.byAction[def.id], b)
	}
	return nil
}

// normalizeDefaults puts built-in sequences in the same form as parsed
// overrides, so "?" is stored as bubbletea reports it.
func normalizeDefaults(seqs [][]string) ([][]string, error) {
	out := make([][]string, 0, len(seqs))
	for _, seq := range seqs {
		steps := make([]string, 0, len(seq))
		for _, raw := range seq {
			step, err := normalizeStep(raw)
			if err != nil {
				return nil, err
			}
			steps = append(steps, step)
		}
		out = append(out, steps)
	}
	return out, nil
}

func parseSequence(spec string) ([]string, error) {
	parts := strings.Fields(spec)
	if len(parts) == 0 {
		return nil, errors.New("empty binding")
	}
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		step, err := normalizeStep(part)
		if err != nil {
			return nil, err
		}
		out = append(out, step)
	}
	return out, nil
}

var modifierRank = map[string]int{
	"ctrl": 0, "control": 0,
	"alt": 1, "option": 1,
	"shift": 2,
	"cmd": 3, "command": 3, "meta": 3,
}

var modifierNames = [...]string{"ctrl", "alt", "shift", "cmd"}

// normalizeStep maps a key to the form bubbletea reports: lower case,
// modifiers in ctrl, alt, shift, cmd order, capitals as shift+letter.
func normalizeStep(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return "", errors.New("empty key step")
	case "?":
		return "shift+/", nil
	case " ":
		return "space", nil
	}
	if utf8.RuneCountInString(raw) == 1 {
		lower := strings.ToLower(raw)
		if lower != raw {
			return "shift+" + lower, nil
		}
		return raw, nil
	}
	if !strings.Contains(raw, "+") {
		return strings.ToLower(raw), nil
	}

	var mods [len(modifierNames)]bool
	var key []string
	for _, part := range strings.Split(raw, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if rank, ok := modifierRank[part]; ok {
			mods[rank] = true
			continue
		}
		key = append(key, part)
	}
	if len(key) == 0 {
		return "", fmt.Errorf("binding %q missing key", raw)
	}
	var out []string
	for i, on := range mods {
		if on {
			out = append(out, modifierNames[i])
		}
	}
	return strings.Join(append(out, strings.Join(key, "+")), "+"), nil
}

// NormalizeKeyString converts a runtime key string for lookup. Invalid keys
// normalize to "".
func NormalizeKeyString(raw string) string {
	step, err := normalizeStep(raw)
	if err != nil {
		return ""
	}
	return step
}

// KnownActions returns every action identifier, sorted.
func KnownActions() []ActionID {
	ids := make([]ActionID, 0, len(definitions))
	for _, def := range definitions {
		ids = append(ids, def.id)
	}
	slices.Sort(ids)
	return ids
}

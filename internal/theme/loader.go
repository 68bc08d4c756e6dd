package theme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	toml "github.com/pelletier/go-toml/v2"
)

const DefaultKey = "default"

type Format string

const (
	FormatBuiltin Format = "builtin"
	FormatJSON    Format = "json"
	FormatTOML    Format = "toml"
)

// Definition is a named theme and where it came from.
type Definition struct {
	Key         string
	DisplayName string
	Metadata    Metadata
	Theme       Theme
	Format      Format
	Path        string
}

func (d Definition) Builtin() bool { return d.Format == FormatBuiltin }

// Catalog lists the built-in theme first, then user themes ordered by
// display name.
type Catalog struct {
	defs []Definition
}

func (c Catalog) All() []Definition { return slices.Clone(c.defs) }

func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c.defs))
	for _, d := range c.defs {
		keys = append(keys, d.Key)
	}
	return keys
}

func (c Catalog) Get(key string) (Definition, bool) {
	i := slices.IndexFunc(c.defs, func(d Definition) bool { return d.Key == key })
	if i < 0 {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Resolve returns the theme named key, or the built-in theme when key is
// blank or unknown.
func (c Catalog) Resolve(key string) Definition {
	if d, ok := c.Get(strings.TrimSpace(key)); ok {
		return d
	}
	return builtin()
}

func builtin() Definition {
	return Definition{
		Key:         DefaultKey,
		DisplayName: "Default",
		Metadata:    Metadata{Name: "Default"},
		Theme:       DefaultTheme(),
		Format:      FormatBuiltin,
	}
}

var themeFormats = map[string]Format{
	".toml": FormatTOML,
	".json": FormatJSON,
}

// LoadCatalog reads *.toml and *.json theme files from dirs. Missing dirs
// are skipped. Broken files are joined into the returned error and the
// catalog still holds everything that loaded.
func LoadCatalog(dirs []string) (Catalog, error) {
	var (
		user []Definition
		errs []error
	)
	taken := map[string]bool{DefaultKey: true}

	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("themes: read directory %q: %w", dir, err))
			}
			continue
		}
		for _, e := range entries {
			format, ok := themeFormats[strings.ToLower(filepath.Ext(e.Name()))]
			if e.IsDir() || !ok {
				continue
			}
			path := filepath.Join(dir, e.Name())
			def, err := loadFile(path, format)
			if err != nil {
				errs = append(errs, fmt.Errorf("themes: load %q: %w", path, err))
				continue
			}
			def.Key = claimKey(def.Key, taken)
			if def.DisplayName == "" {
				def.DisplayName = displayName(def.Key)
			}
			user = append(user, def)
		}
	}

	slices.SortStableFunc(user, func(a, b Definition) int {
		if c := strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	return Catalog{defs: append([]Definition{builtin()}, user...)}, errors.Join(errs...)
}

func loadFile(path string, format Format) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}
	var spec ThemeSpec
	if format == FormatTOML {
		err = toml.Unmarshal(data, &spec)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&spec)
	}
	if err != nil {
		return Definition{}, err
	}
	th, err := ApplySpec(DefaultTheme(), spec)
	if err != nil {
		return Definition{}, err
	}

	var meta Metadata
	if spec.Metadata != nil {
		meta = *spec.Metadata
	}
	key := slugify(meta.Name)
	if key == "" {
		key = slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	return Definition{
		Key:         key,
		DisplayName: strings.TrimSpace(meta.Name),
		Metadata:    meta,
		Theme:       th,
		Format:      format,
		Path:        path,
	}, nil
}

// claimKey returns key, or key-N for the first free N when key is taken.
func claimKey(key string, taken map[string]bool) string {
	if key == "" {
		key = "theme"
	}
	out := key
	for n := 1; taken[out]; n++ {
		out = key + "-" + strconv.Itoa(n)
	}
	taken[out] = true
	return out
}

func slugify(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "-")
}

func displayName(key string) string {
	words := strings.Split(key, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

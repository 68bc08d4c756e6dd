package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

type SettingsFormat string

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
)

// DefaultLogTail is how many metadata log entries the TUI shows.
const DefaultLogTail = 5

// Settings are the TUI preferences kept in the config directory. They do not
// affect how queries are evaluated.
type Settings struct {
	DefaultTheme string         `json:"default_theme" toml:"default_theme"`
	LogTail      int            `json:"log_tail"      toml:"log_tail"`
	ShowHistory  *bool          `json:"show_history"  toml:"show_history"`
	Layout       LayoutSettings `json:"layout"        toml:"layout"`
}

// Normalise fills unset fields with their defaults.
func (s Settings) Normalise() Settings {
	if s.LogTail <= 0 {
		s.LogTail = DefaultLogTail
	}
	if s.ShowHistory == nil {
		show := true
		s.ShowHistory = &show
	}
	s.Layout = NormaliseLayoutSettings(s.Layout)
	return s
}

func (s Settings) HistoryVisible() bool {
	return s.ShowHistory == nil || *s.ShowHistory
}

// SettingsHandle records which file the settings came from.
type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

var settingsDecoders = map[SettingsFormat]func([]byte, *Settings) error{
	SettingsFormatTOML: func(data []byte, s *Settings) error {
		return toml.Unmarshal(data, s)
	},
	SettingsFormatJSON: func(data []byte, s *Settings) error {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(s)
	},
}

// LoadSettings reads settings.toml, falling back to settings.json. A parse
// error is returned at once; a missing file moves on to the next candidate.
// Without either file the defaults are returned with a handle for the TOML path.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	handles := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
	}

	var readErrs []error
	for _, h := range handles {
		data, err := os.ReadFile(h.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			readErrs = append(readErrs, fmt.Errorf("read settings %q: %w", h.Path, err))
			continue
		}
		var s Settings
		if err := settingsDecoders[h.Format](data, &s); err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf("parse settings %q: %w", h.Path, err)
		}
		return s.Normalise(), h, nil
	}
	if err := errors.Join(readErrs...); err != nil {
		return Settings{}, SettingsHandle{}, err
	}
	return Settings{}.Normalise(), handles[0], nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/orest-d/liquer/internal/errdef"
	"github.com/orest-d/liquer/internal/history"
	"github.com/orest-d/liquer/internal/liquer"
)

const (
	EnvPrefix     = "LIQUER_"
	DefaultServer = "http://localhost:5000"
)

// Profile describes how to reach a liquer server.
type Profile struct {
	Server       string           `koanf:"server"`
	Timeout      time.Duration    `koanf:"timeout"`
	Insecure     bool             `koanf:"insecure"`
	Proxy        string           `koanf:"proxy"`
	PollInterval time.Duration    `koanf:"poll_interval"`
	HistorySize  int              `koanf:"history_size"`
	Endpoints    liquer.Endpoints `koanf:"endpoints"`
	Log          LogProfile       `koanf:"log"`

	// Source is the profile file that was read, if any.
	Source string `koanf:"-"`
}

type LogProfile struct {
	File  string `koanf:"file"`
	Level string `koanf:"level"`
}

// flagKeys maps command line flags onto profile keys. Flags not listed here
// are command options and stay out of the profile.
var flagKeys = map[string]string{
	"server":        "server",
	"timeout":       "timeout",
	"insecure":      "insecure",
	"proxy":         "proxy",
	"poll-interval": "poll_interval",
	"history-size":  "history_size",
	"log-file":      "log.file",
	"log-level":     "log.level",
}

func defaults() map[string]any {
	ep := liquer.DefaultEndpoints()
	return map[string]any{
		"server":           DefaultServer,
		"timeout":          30 * time.Second,
		"insecure":         false,
		"proxy":            "",
		"poll_interval":    500 * time.Millisecond,
		"history_size":     history.DefaultMaxEntries,
		"endpoints.submit": ep.Submit,
		"endpoints.remove": ep.Remove,
		"endpoints.meta":   ep.Meta,
		"endpoints.q":      ep.Q,
		"endpoints.clean":  ep.Clean,
		"log.file":         LogPath(),
		"log.level":        "info",
	}
}

// FindProfile returns the profile file to read: explicit when given, else
// liquer.yaml or liquer.yml in the working directory, then in Dir().
func FindProfile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, dir := range []string{".", Dir()} {
		for _, name := range []string{"liquer.yaml", "liquer.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

// LoadProfile merges defaults, the profile file, LIQUER_* environment
// variables and explicitly set flags, in increasing precedence. Nested keys
// are addressed in the environment with a double underscore, e.g.
// LIQUER_ENDPOINTS__SUBMIT.
func LoadProfile(path string, flags *pflag.FlagSet) (Profile, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Profile{}, errdef.Wrap(errdef.CodeConfig, err, "load defaults")
	}

	source := FindProfile(path)
	if source != "" {
		if err := k.Load(file.Provider(source), yaml.Parser()); err != nil {
			return Profile{}, errdef.Wrap(errdef.CodeConfig, err, "read profile %s", source)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Profile{}, errdef.Wrap(errdef.CodeConfig, err, "load environment")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Profile{}, errdef.Wrap(errdef.CodeConfig, err, "load flags")
		}
	}

	var p Profile
	if err := k.Unmarshal("", &p); err != nil {
		return Profile{}, errdef.Wrap(errdef.CodeConfig, err, "decode profile")
	}
	p.Source = source
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func (p *Profile) Validate() error {
	p.Server = strings.TrimRight(strings.TrimSpace(p.Server), "/")
	u, err := url.Parse(p.Server)
	if err != nil {
		return errdef.Wrap(errdef.CodeConfig, err, "invalid server %q", p.Server)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return errdef.New(errdef.CodeConfig, "server %q must be an http(s) URL", p.Server)
	}
	if p.Proxy != "" {
		if _, err := url.Parse(p.Proxy); err != nil {
			return errdef.Wrap(errdef.CodeConfig, err, "invalid proxy %q", p.Proxy)
		}
	}
	if p.Timeout < 0 {
		return errdef.New(errdef.CodeConfig, "timeout must not be negative")
	}
	if p.PollInterval <= 0 {
		return errdef.New(errdef.CodeConfig, "poll interval must be positive, got %s", p.PollInterval)
	}
	if p.HistorySize < 0 {
		return errdef.New(errdef.CodeConfig, "history size must not be negative")
	}
	return nil
}

func (p Profile) String() string {
	return fmt.Sprintf("%s (timeout %s, poll %s)", p.Server, p.Timeout, p.PollInterval)
}

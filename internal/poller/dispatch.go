package poller

import (
	"slices"
	"strings"
)

const typeDataframe = "dataframe"

// Target is what dispatch rules inspect: the declared type and extension of
// the loaded state and the path the content will be fetched from.
type Target struct {
	TypeIdentifier string
	StateExtension string
	Path           string
}

func (t Target) declares(exts ...string) bool {
	for _, ext := range exts {
		if t.StateExtension == ext {
			return true
		}
	}
	return false
}

func (t Target) pathHasSuffix(exts ...string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(t.Path, "."+ext) {
			return true
		}
	}
	return false
}

// Rule maps a predicate to a display mode. Inline rules fetch and decode the
// content as JSON; the others only hand the content URL to the view.
type Rule struct {
	Name   string
	Match  func(Target) bool
	Mode   func(Target) Mode
	Inline bool
}

func fixed(m Mode) func(Target) Mode {
	return func(Target) Mode { return m }
}

// rules are evaluated in order; the first match wins.
var rules = []Rule{
	{
		Name: "json",
		Match: func(t Target) bool {
			return t.declares("json") || t.pathHasSuffix("json")
		},
		Mode: func(t Target) Mode {
			if t.TypeIdentifier == typeDataframe {
				return ModeDataframe
			}
			return ModeNone
		},
		Inline: true,
	},
	{
		Name: "html",
		Match: func(t Target) bool {
			return t.declares("html", "htm") || t.pathHasSuffix("html", "htm")
		},
		Mode: fixed(ModeIframe),
	},
	{
		Name: "image",
		Match: func(t Target) bool {
			return t.declares("png", "jpg", "jpeg", "svg") ||
				t.pathHasSuffix("png", "jpg", "jpeg", "svg")
		},
		Mode: fixed(ModeImage),
	},
	{
		Name:  "default",
		Match: func(Target) bool { return true },
		Mode:  fixed(ModeIframe),
	},
}

// Rules returns the dispatch rules in evaluation order. The slice is a copy.
func Rules() []Rule { return slices.Clone(rules) }

// Dispatch returns the first rule matching t.
func Dispatch(t Target) Rule {
	for _, r := range rules {
		if r.Match(t) {
			return r
		}
	}
	return rules[len(rules)-1]
}

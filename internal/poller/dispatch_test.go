package poller

import (
	"strings"
	"testing"
)

func TestDispatchPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		target Target
		rule   string
		mode   Mode
	}{
		{"json path", Target{TypeIdentifier: "dictionary", Path: "a/b.json"}, "json", ModeNone},
		{"json dataframe", Target{TypeIdentifier: "dataframe", Path: "df/data.json"}, "json", ModeDataframe},
		{"declared json wins over html path", Target{StateExtension: "json", Path: "a/b.html"}, "json", ModeNone},
		{"html", Target{StateExtension: "html", Path: "a"}, "html", ModeIframe},
		{"htm path", Target{Path: "a/b.htm"}, "html", ModeIframe},
		{"html wins over image", Target{StateExtension: "html", Path: "a/b.png"}, "html", ModeIframe},
		{"png", Target{Path: "fig/image.png"}, "image", ModeImage},
		{"declared svg", Target{StateExtension: "svg", Path: "plot"}, "image", ModeImage},
		{"jpeg", Target{Path: "x.jpeg"}, "image", ModeImage},
		{"fallback", Target{StateExtension: "txt", Path: "a/b.txt"}, "default", ModeIframe},
		{"no extension", Target{Path: "a/b"}, "default", ModeIframe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Dispatch(tc.target)
			if r.Name != tc.rule {
				t.Fatalf("expected rule %q, got %q", tc.rule, r.Name)
			}
			if got := r.Mode(tc.target); got != tc.mode {
				t.Fatalf("expected mode %q, got %q", tc.mode, got)
			}
			if r.Inline != (tc.rule == "json") {
				t.Fatalf("only the json rule fetches inline")
			}
		})
	}
}

func TestPhaseDone(t *testing.T) {
	for _, p := range []Phase{PhaseIdle, PhaseSubmitted, PhasePolling, PhaseLoading} {
		if p.Done() {
			t.Fatalf("%v must not be final", p)
		}
	}
	if !PhaseLoaded.Done() || !PhaseFailed.Done() {
		t.Fatalf("loaded and failed are final")
	}
}

func TestRulesReturnsCopy(t *testing.T) {
	got := Rules()
	got[0] = Rule{Name: "override", Match: func(Target) bool { return true }, Mode: fixed(ModeImage)}
	if r := Dispatch(Target{Path: "a/b.json"}); r.Name != "json" {
		t.Fatalf("changing the returned rules altered dispatch: got %q", r.Name)
	}
	names := make([]string, 0, len(got))
	for _, r := range Rules() {
		names = append(names, r.Name)
	}
	if strings.Join(names, ",") != "json,html,image,default" {
		t.Fatalf("unexpected rule order %v", names)
	}
}

package theme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCatalogIncludesDefaultAndUserThemes(t *testing.T) {
	dir := t.TempDir()

	tomlContent := []byte(`
[metadata]
name = "Oceanic"
author = "QA"

[styles.header]
foreground = "#ddeeff"

[colors]
status_blue = "#335577"
`)
	if err := os.WriteFile(filepath.Join(dir, "oceanic.toml"), tomlContent, 0o644); err != nil {
		t.Fatalf("write toml theme: %v", err)
	}

	jsonContent := []byte(`{
  "metadata": {"name": "Oceanic", "author": "QA"},
  "colors": {"pane_border_focus": "#ff9900"},
  "styles": {"link": {"underline": false}}
}`)
	if err := os.WriteFile(filepath.Join(dir, "sunset.json"), jsonContent, 0o644); err != nil {
		t.Fatalf("write json theme: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	catalog, err := LoadCatalog([]string{dir})
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	if keys := catalog.Keys(); len(keys) != 3 || keys[0] != DefaultKey {
		t.Fatalf("expected default first and two user themes, got %v", keys)
	}

	oceanic, ok := catalog.Get("oceanic")
	if !ok {
		t.Fatalf("expected oceanic theme to load")
	}
	if oceanic.Metadata.Author != "QA" || oceanic.Builtin() {
		t.Fatalf("unexpected definition %+v", oceanic.Metadata)
	}
	if oceanic.Theme.Status.Blue != "#335577" {
		t.Fatalf("expected status colour override, got %q", oceanic.Theme.Status.Blue)
	}

	duplicate, ok := catalog.Get("oceanic-1")
	if !ok {
		t.Fatalf("expected duplicate slug to be uniquified")
	}
	if duplicate.Theme.PaneBorderFocus != "#ff9900" {
		t.Fatalf("expected JSON colour override, got %q", duplicate.Theme.PaneBorderFocus)
	}
	if duplicate.Theme.Link.GetUnderline() {
		t.Fatalf("expected link underline disabled")
	}
}

func TestLoadCatalogHandlesMissingDirectory(t *testing.T) {
	catalog, err := LoadCatalog([]string{"/nonexistent/path"})
	if err != nil {
		t.Fatalf("LoadCatalog should not error on missing directories: %v", err)
	}
	if len(catalog.All()) != 1 {
		t.Fatalf("expected only default theme, got %d", len(catalog.All()))
	}
	if def := catalog.Resolve("missing"); def.Key != DefaultKey {
		t.Fatalf("expected fallback to default, got %q", def.Key)
	}
}

func TestLoadCatalogReportsBrokenThemes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.toml"), []byte("[styles.nope]\nbold = true\n"), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
	catalog, err := LoadCatalog([]string{dir})
	if err == nil {
		t.Fatalf("expected error for unknown style")
	}
	if _, ok := catalog.Get(DefaultKey); !ok {
		t.Fatalf("default theme must survive broken user themes")
	}
}

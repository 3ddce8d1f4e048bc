package presets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load embedded: %v", err)
	}
	if c.Len() != 5 {
		t.Fatalf("expected 5 presets, got %d", c.Len())
	}
	for _, im := range c.All() {
		if !strings.HasPrefix(im.SVG, "<svg") {
			t.Fatalf("preset %s: svg payload should start with <svg", im.ID)
		}
		if !strings.HasPrefix(im.DataURL(), "data:image/svg+xml,") {
			t.Fatalf("preset %s: unexpected data url prefix", im.ID)
		}
		if strings.Contains(im.DataURL(), "#") {
			t.Fatalf("preset %s: data url must escape '#'", im.ID)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	body := `[{"id":"a","description":"first","svg":"<svg/>"},{"id":"b","description":"second","svg":"<svg/>"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 presets, got %d", c.Len())
	}
	im, ok := c.Get("b")
	if !ok || im.Description != "second" {
		t.Fatalf("expected preset b, got %+v (ok=%v)", im, ok)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":       `[]`,
		"not json":    `{`,
		"missing svg": `[{"id":"a","description":"x","svg":" "}]`,
		"missing id":  `[{"id":"","description":"x","svg":"<svg/>"}]`,
		"duplicate":   `[{"id":"a","description":"x","svg":"<svg/>"},{"id":"a","description":"y","svg":"<svg/>"}]`,
	}
	for name, body := range cases {
		if _, err := Parse([]byte(body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestPickUsesSource(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	all := c.All()
	for i := range all {
		got := c.Pick(func(n int) int {
			if n != len(all) {
				t.Fatalf("intn called with %d, want %d", n, len(all))
			}
			return i
		})
		if got.ID != all[i].ID {
			t.Fatalf("pick %d: got %s want %s", i, got.ID, all[i].ID)
		}
	}
}

func TestRandomStaysInCatalogue(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		im := c.Random()
		if _, ok := c.Get(im.ID); !ok {
			t.Fatalf("random returned unknown preset %q", im.ID)
		}
		seen[im.ID] = true
	}
	// 500 uniform draws over 5 items miss one with negligible probability.
	if len(seen) != c.Len() {
		t.Fatalf("expected every preset to be drawn, saw %d of %d", len(seen), c.Len())
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c, _ := Load("")
	all := c.All()
	all[0].ID = "mutated"
	if _, ok := c.Get("mutated"); ok {
		t.Fatal("All must not expose internal storage")
	}
	if c.All()[0].ID == "mutated" {
		t.Fatal("All must return a copy")
	}
}

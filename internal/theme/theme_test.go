package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
Name: night
Background: #111111
stroke = #FF000080
Unknown: #123456
`
	th, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if th.Name != "night" {
		t.Errorf("Name = %q", th.Name)
	}
	if th.Background != (color.RGBA{0x11, 0x11, 0x11, 255}) {
		t.Errorf("Background = %+v", th.Background)
	}
	if th.Stroke != (color.RGBA{255, 0, 0, 0x80}) {
		t.Errorf("Stroke = %+v", th.Stroke)
	}
	if th.ProgressFill != Default().ProgressFill {
		t.Errorf("missing keys should keep defaults")
	}
}

func TestParseBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("Background: 123456")); err == nil {
		t.Fatal("expected error for colour without #")
	}
	if _, err := Parse(strings.NewReader("Background: #1234")); err == nil {
		t.Fatal("expected error for short colour")
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, s := range []string{"#F8F9FA", "#FF6B3580"} {
		c, err := ParseColor(s)
		if err != nil {
			t.Fatalf("ParseColor(%s): %v", s, err)
		}
		if got := Hex(c); got != s {
			t.Fatalf("Hex = %s, want %s", got, s)
		}
	}
}

func TestLoaderEmbedded(t *testing.T) {
	l := &Loader{}
	th, err := l.Load("dark")
	if err != nil {
		t.Fatalf("Load dark: %v", err)
	}
	if th.Name != "dark" {
		t.Fatalf("Name = %q", th.Name)
	}
	names := l.Names()
	if len(names) < 2 || names[0] != "dark" || names[1] != "light" {
		t.Fatalf("Names = %v", names)
	}
}

func TestLoaderSearchOrder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "mine.theme"), []byte("Name: mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := &Loader{ConfigDir: dir, Custom: map[string]*Theme{"inline": {Name: "inline"}}}
	if th, err := l.Load("mine"); err != nil || th.Name != "mine" {
		t.Fatalf("Load mine = %v, %v", th, err)
	}
	if th, err := l.Load("inline"); err != nil || th.Name != "inline" {
		t.Fatalf("Load inline = %v, %v", th, err)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Fatal("expected error for missing theme")
	}
	if th, err := l.Load(""); err != nil || th.Name != "Default" {
		t.Fatalf("Load empty = %v, %v", th, err)
	}
}

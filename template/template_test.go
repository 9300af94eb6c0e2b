package template

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/reelfit/layout"
)

const sample = `{
  "title": "Launch week",
  "subTitle": "Everything we shipped",
  "highlights": [
    {"text": "Faster builds", "bgColor": "#7c3aed"},
    {"text": "Dark mode", "bgColor": "#facc15"}
  ],
  "ratio": "9:16"
}`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launch.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	d, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Title != "Launch week" || d.SubTitle != "Everything we shipped" || len(d.Highlights) != 2 {
		t.Fatalf("unexpected data: %+v", d)
	}
	if d.Highlights[1].BgColor != "#facc15" {
		t.Fatalf("highlight color = %q", d.Highlights[1].BgColor)
	}
}

func TestDecodeRejectsInvalidData(t *testing.T) {
	cases := map[string]string{
		"bad ratio":     `{"title":"a","subTitle":"b","highlights":[],"ratio":"4:3"}`,
		"missing ratio": `{"title":"a","subTitle":"b","highlights":[]}`,
		"bad color":     `{"title":"a","subTitle":"b","highlights":[{"text":"x","bgColor":"purple"}],"ratio":"1:1"}`,
		"not json":      `{"title":`,
	}
	for name, raw := range cases {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("missing file should be an I/O error, got %v", err)
	}
}

func TestDimensions(t *testing.T) {
	cases := []struct {
		ratio string
		w, h  float64
	}{
		{"9:16", 1080, 1920},
		{"1:1", 1080, 1080},
		{"16:9", 1920, 1080},
		{"", 1920, 1080},
	}
	for _, tc := range cases {
		w, h := Dimensions(tc.ratio)
		if w != tc.w || h != tc.h {
			t.Fatalf("Dimensions(%q) = %gx%g, want %gx%g", tc.ratio, w, h, tc.w, tc.h)
		}
	}
}

func TestContrastColor(t *testing.T) {
	cases := map[string]string{
		"#ffffff": "#000000",
		"#facc15": "#000000",
		"#7c3aed": "#ffffff",
		"#000000": "#ffffff",
		"#fff":    "#000000",
		"garbage": "#ffffff",
	}
	for bg, want := range cases {
		if got := ContrastColor(bg); got != want {
			t.Fatalf("ContrastColor(%q) = %q, want %q", bg, got, want)
		}
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#ffffff80")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if got != (layout.Color{R: 255, G: 255, B: 255, A: 128}) {
		t.Fatalf("got %+v", got)
	}
	if got, _ := ParseColor("#7c3aed"); got != (layout.Color{R: 124, G: 58, B: 237}) {
		t.Fatalf("got %+v", got)
	}
	if _, err := ParseColor("#12345g"); err == nil {
		t.Fatalf("invalid hex should fail")
	}
}

func TestDecodeAcceptsEmptyHighlightText(t *testing.T) {
	d, err := Decode([]byte(`{"title":"a","highlights":[{"text":"","bgColor":"#fff"}],"ratio":"1:1"}`))
	if err != nil {
		t.Fatalf("empty highlight text should be valid: %v", err)
	}
	if len(d.Highlights) != 1 || d.Highlights[0].Text != "" {
		t.Fatalf("highlights = %+v", d.Highlights)
	}
}

package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/reelfit/dsl"
)

const sampleScene = `
// 单行注释
scene Reel v1 {
  background: #000000

  font Title {
    src: "embed:go/bold"
    style: bold
  }

  text title {
    content: "${title}"
    font: Title; size: 7.5em
    line-height: 1.06
    color: #fff
    box: 10% 8% 80% 30%
  }

  /* 块注释 */
  highlight callout {
    content: "${highlight.text}"
    padding: 0.33em 0.66em
    background: "${highlight.bgColor}"
    wrap: nowrap
  }
}
`

func TestParseScene(t *testing.T) {
	doc, err := dsl.ParseString(sampleScene)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Name != "Reel" || doc.Version != "v1" {
		t.Fatalf("expected Reel v1, got %s %s", doc.Name, doc.Version)
	}

	bg := doc.Property("background")
	if bg == nil || bg.Values[0].Color == nil || *bg.Values[0].Color != "#000000" {
		t.Fatalf("background color missing: %+v", bg)
	}

	if fonts := doc.Nodes("font"); len(fonts) != 1 || fonts[0].Name != "Title" {
		t.Fatalf("expected font Title, got %+v", fonts)
	}
	if got := doc.Nodes("font")[0].Property("src").Text(); got != "embed:go/bold" {
		t.Fatalf("font src = %q", got)
	}

	texts := doc.Nodes("text")
	if len(texts) != 1 {
		t.Fatalf("expected 1 text node, got %d", len(texts))
	}
	title := texts[0]
	if got := title.Property("content").Text(); got != "${title}" {
		t.Fatalf("content = %q", got)
	}
	if got := title.Property("size").Values[0]; got.Number == nil || *got.Number != "7.5em" {
		t.Fatalf("size = %+v", got)
	}
	if got := title.Property("font").Text(); got != "Title" {
		t.Fatalf("分号分隔的属性解析失败: %q", got)
	}
	if got := title.Property("box").Text(); got != "10% 8% 80% 30%" {
		t.Fatalf("box = %q", got)
	}
	if got := title.Property("color").Text(); got != "#fff" {
		t.Fatalf("color = %q", got)
	}

	callout := doc.Nodes("highlight")
	if len(callout) != 1 || callout[0].Name != "callout" {
		t.Fatalf("highlight node missing")
	}
	if pad := callout[0].Property("padding"); pad == nil || len(pad.Values) != 2 {
		t.Fatalf("padding should have 2 values: %+v", pad)
	}
	if len(doc.Nodes("")) != 3 {
		t.Fatalf("expected 3 nodes in total, got %d", len(doc.Nodes("")))
	}
}

func TestParseSceneWithoutVersion(t *testing.T) {
	doc, err := dsl.Parse(strings.NewReader("scene Minimal {\n  text { content: \"hi\" }\n}\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if doc.Version != "" {
		t.Fatalf("version should be empty, got %q", doc.Version)
	}
	if n := doc.Nodes("text"); len(n) != 1 || n[0].Name != "" {
		t.Fatalf("anonymous text node missing: %+v", n)
	}
}

func TestLaterPropertyWins(t *testing.T) {
	doc, err := dsl.ParseString("scene S {\n  background: #111\n  background: #222\n}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := doc.Property("background").Text(); got != "#222" {
		t.Fatalf("expected later value, got %q", got)
	}
	if doc.Property("missing") != nil || doc.Property("missing").Text() != "" {
		t.Fatalf("missing property should be nil")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"",
		"doc X v1 {}",
		"scene X {\n  text title {\n",
		"scene X {\n  size:\n}",
	}
	for _, input := range cases {
		if _, err := dsl.ParseString(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// execute 以独立配置运行一次命令，返回标准输出。
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "reelfit.toml")
	writeFile(t, cfgPath, "[fit]\nvariant = \"adaptive\"\n")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append(args, "--config", cfgPath))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFrameName(t *testing.T) {
	if got := frameName("data/launch.json", 2); got != "launch-2" {
		t.Fatalf("frameName = %q", got)
	}
	if got := frameName("noext", 0); got != "noext-0" {
		t.Fatalf("frameName = %q", got)
	}
}

func TestFitCommand(t *testing.T) {
	out, err := execute(t, "fit", "--width", "320", "--height", "200", "--json", "Hello world")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	var report fitReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if report.Scale != 1 || report.FontPx != 16 {
		t.Fatalf("short text in a wide box should keep scale 1: %+v", report)
	}
	if strings.Join(report.Segments, "") != "Hello world" {
		t.Fatalf("segments = %q", report.Segments)
	}
}

func TestFitCommandShrinks(t *testing.T) {
	out, err := execute(t, "fit", "--width", "60", "--height", "20", "--json", "A fairly long caption that cannot fit")
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	var report fitReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if report.Scale >= 1 || report.Scale <= 0 {
		t.Fatalf("scale should shrink, got %v", report.Scale)
	}
	if len(report.Segments) == 0 {
		t.Fatalf("segments missing")
	}
}

func TestFitCommandRejectsBadInput(t *testing.T) {
	if _, err := execute(t, "fit", "--variant", "zigzag", "x"); err == nil {
		t.Fatalf("unknown variant should fail")
	}
	if _, err := execute(t, "fit", "--width", "0", "x"); err == nil {
		t.Fatalf("zero width should fail")
	}
	if _, err := execute(t, "fit"); err == nil {
		t.Fatalf("missing text should fail")
	}
}

func TestRenderCommand(t *testing.T) {
	dataDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "frames")
	writeFile(t, filepath.Join(dataDir, "launch.json"), `{
  "title": "Launch week",
  "subTitle": "Everything we shipped",
  "highlights": [
    {"text": "Faster builds", "bgColor": "#7c3aed"},
    {"text": "Dark mode", "bgColor": "#facc15"}
  ],
  "ratio": "9:16"
}`)
	writeFile(t, filepath.Join(dataDir, "plain.json"), `{"title": "Only a title", "ratio": "1:1"}`)
	writeFile(t, filepath.Join(dataDir, "broken.json"), `{"title": "no ratio"}`)

	_, err := execute(t, "render", "--data", filepath.Join(dataDir, "*.json"), "--out", outDir, "--format", "svg", "--debug")
	if err != nil {
		t.Fatalf("render should succeed when some files are valid: %v", err)
	}
	for _, name := range []string{"launch-0.svg", "launch-1.svg", "launch-0.json", "plain-0.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if matches, _ := filepath.Glob(filepath.Join(outDir, "broken-*")); len(matches) != 0 {
		t.Fatalf("invalid data should not produce frames: %v", matches)
	}
	svg, err := os.ReadFile(filepath.Join(outDir, "launch-1.svg"))
	if err != nil || !bytes.Contains(svg, []byte("<svg")) {
		t.Fatalf("launch-1.svg is not an svg: %v", err)
	}
}

func TestRenderCommandRecursiveGlob(t *testing.T) {
	dataDir := t.TempDir()
	nested := filepath.Join(dataDir, "2024", "week1")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(nested, "deep.json"), `{"title": "Nested", "ratio": "16:9"}`)
	writeFile(t, filepath.Join(dataDir, "top.json"), `{"title": "Top", "ratio": "1:1"}`)
	outDir := t.TempDir()

	if _, err := execute(t, "render", "--data", filepath.Join(dataDir, "**", "*.json"), "--out", outDir, "--format", "svg"); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, name := range []string{"deep-0.svg", "top-0.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestRenderCommandFailures(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, filepath.Join(dataDir, "broken.json"), `{"title": "no ratio"}`)

	if _, err := execute(t, "render", "--data", filepath.Join(dataDir, "*.json"), "--out", t.TempDir()); err == nil {
		t.Fatalf("all files failing should be an error")
	}
	if _, err := execute(t, "render", "--data", filepath.Join(dataDir, "none-*.json"), "--out", t.TempDir()); err == nil {
		t.Fatalf("empty glob should be an error")
	}
	if _, err := execute(t, "render", "--data", filepath.Join(dataDir, "*.json"), "--format", "gif"); err == nil {
		t.Fatalf("unknown format should be an error")
	}
	if _, err := execute(t, "render"); err == nil {
		t.Fatalf("--data is required")
	}
}

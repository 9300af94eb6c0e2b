package canvasrenderer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/reelfit/layout"
)

// monoFace 每个字符宽 10，便于断言换行位置。
type monoFace struct{}

func (monoFace) TextWidth(s string) float64 { return float64(utf8.RuneCountInString(s)) * 10 }

func contents(lines []layout.TextLine) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Content)
	}
	return out
}

func TestWrapTokensHangsTrailingSpace(t *testing.T) {
	lines := wrapLines("AB CD", 35, monoFace{}, layout.WrapAnywhere)
	got := contents(lines)
	if len(got) != 2 || got[0] != "AB " || got[1] != "CD" {
		t.Fatalf("期望 [\"AB \" \"CD\"]，实际 %q", got)
	}
	if lines[0].Width != 20 {
		t.Fatalf("行宽不应包含悬挂空白，实际 %g", lines[0].Width)
	}
}

func TestWrapSplitsLongWord(t *testing.T) {
	got := contents(wrapLines("aaaaaa", 25, monoFace{}, layout.WrapAnywhere))
	if strings.Join(got, "|") != "aa|aa|aa" {
		t.Fatalf("长单词拆分错误: %q", got)
	}
}

func TestWrapHonorsNewlines(t *testing.T) {
	got := contents(wrapLines("foo\n\nbar", 1000, monoFace{}, layout.WrapAnywhere))
	if len(got) != 3 || got[1] != "" {
		t.Fatalf("期望包含空行的 3 行，实际 %q", got)
	}
}

func TestWrapNoneKeepsSingleLine(t *testing.T) {
	got := contents(wrapLines("a very long line", 10, monoFace{}, layout.WrapNone))
	if len(got) != 1 {
		t.Fatalf("nowrap 不应折行，实际 %q", got)
	}
}

func TestWrapBreakWordIgnoresSpaces(t *testing.T) {
	got := contents(wrapLines("abc def", 30, monoFace{}, layout.WrapBreakWord))
	if strings.Join(got, "|") != "abc |def" {
		t.Fatalf("break-word 切分错误: %q", got)
	}
}

// TestWrapConcatenationRoundTrip 验证各策略下行内容拼接后还原原文（去掉换行符）。
func TestWrapConcatenationRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"single",
		"  leading spaces and   gaps  ",
		"Open with a bold claim that keeps going",
		"line one\nline two\r\nline three",
		"supercalifragilisticexpialidocious word",
		"中文混排 mixed 文本",
	}
	for _, wrap := range []string{layout.WrapAnywhere, layout.WrapBreakWord, layout.WrapNone} {
		for _, in := range inputs {
			lines := wrapLines(in, 45, monoFace{}, wrap)
			want := strings.NewReplacer("\r", "", "\n", "").Replace(in)
			if got := strings.Join(contents(lines), ""); got != want {
				t.Fatalf("%s: 拼接结果 %q 与原文 %q 不一致", wrap, got, want)
			}
		}
	}
}

func TestWrapWidthLimit(t *testing.T) {
	lines := wrapLines("aaaa bbbb cccc dddddddddd ee", 50, monoFace{}, layout.WrapAnywhere)
	for i, ln := range lines {
		if ln.Width > 50 {
			t.Fatalf("第 %d 行宽度 %g 超过限制", i, ln.Width)
		}
	}
}

package fit

import (
	"strings"
	"testing"
)

// rectsByLine 为每个字符生成包围盒，lines[i] 是第 i 个字符所在行；-1 表示未绘制。
type rectsByLine []int

func (r rectsByLine) RuneRect(i int) Rect {
	if i < 0 || i >= len(r) || r[i] < 0 {
		return Rect{}
	}
	return Rect{X: float64(i) * 8, Y: float64(r[i]) * 20, Width: 8, Height: 20}
}

func TestSegmentSplitsOnTopChange(t *testing.T) {
	got := Segment("AB CD", rectsByLine{0, 0, 0, 1, 1})
	if len(got) != 2 || got[0] != "AB " || got[1] != "CD" {
		t.Fatalf("期望 [\"AB \" \"CD\"]，实际 %q", got)
	}
}

func TestSegmentSingleLine(t *testing.T) {
	got := Segment("hello", rectsByLine{0, 0, 0, 0, 0})
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("单行文本应得到一个片段，实际 %q", got)
	}
}

func TestSegmentNothingLaidOut(t *testing.T) {
	if got := Segment("abc", rectsByLine{-1, -1, -1}); got != nil {
		t.Fatalf("没有已绘制字符时应返回 nil，实际 %q", got)
	}
	if got := Segment("", rectsByLine{}); got != nil {
		t.Fatalf("空文本应返回 nil")
	}
}

func TestSegmentIgnoresSubPixelJitter(t *testing.T) {
	m := measurerFunc(func(i int) Rect { return Rect{Y: float64(i%2) * 0.4, Width: 1, Height: 1} })
	if got := Segment("abcd", m); len(got) != 1 {
		t.Fatalf("0.5px 以内的抖动不应换行，实际 %q", got)
	}
}

// TestSegmentRoundTrip 片段拼接后与原文完全一致，包括多字节字符与未绘制的换行符。
func TestSegmentRoundTrip(t *testing.T) {
	text := "第一行\n第二行 mixed\nend"
	lines := rectsByLine{0, 0, 0, -1, 1, 1, 1, 1, 1, 1, 1, 1, 1, -1, 2, 2, 2}
	got := Segment(text, lines)
	if strings.Join(got, "") != text {
		t.Fatalf("拼接结果 %q 与原文不一致", strings.Join(got, ""))
	}
	if len(got) != 3 || got[0] != "第一行\n" || got[2] != "end" {
		t.Fatalf("切分结果 %q", got)
	}
}

func TestSameSegments(t *testing.T) {
	if !SameSegments(nil, []string{}) {
		t.Fatalf("nil 与空切片应视为相同")
	}
	if SameSegments([]string{"a"}, []string{"b"}) {
		t.Fatalf("内容不同应返回 false")
	}
}

type measurerFunc func(i int) Rect

func (f measurerFunc) RuneRect(i int) Rect { return f(i) }

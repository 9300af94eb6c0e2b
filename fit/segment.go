package fit

import (
	"math"
	"slices"
	"unicode/utf8"
)

// RuneMeasurer 返回文本中第 i 个字符（rune 下标）当前的包围盒。
type RuneMeasurer interface {
	RuneRect(i int) Rect
}

// Segment 按视觉行切分 text：跳过未绘制的字符，顶部位置变化超过 0.5px 即视为换行。
// 所有片段按顺序拼接后与 text 完全一致；没有任何已绘制字符时返回 nil。
func Segment(text string, m RuneMeasurer) []string {
	if text == "" || m == nil {
		return nil
	}
	var (
		segments []string
		top      float64
		seenTop  bool
		start    int
	)
	idx := 0
	for offset := 0; offset < len(text); idx++ {
		_, size := utf8.DecodeRuneInString(text[offset:])
		rect := m.RuneRect(idx)
		if !rect.Empty() {
			switch {
			case !seenTop:
				top = rect.Y
				seenTop = true
			case math.Abs(rect.Y-top) > lineTopDelta:
				segments = append(segments, text[start:offset])
				start = offset
				top = rect.Y
			}
		}
		offset += size
	}
	if !seenTop {
		return nil
	}
	return append(segments, text[start:])
}

// SameSegments 逐项比较两组片段。
func SameSegments(a, b []string) bool { return slices.Equal(a, b) }

package fit

import "math"

// Prober 在给定试探字号下返回渲染后的宽高。
type Prober interface {
	Probe(fontPx float64) (width, height float64)
}

// ProbeFunc 让普通函数实现 Prober。
type ProbeFunc func(fontPx float64) (width, height float64)

// Probe 实现 Prober。
func (f ProbeFunc) Probe(fontPx float64) (float64, float64) { return f(fontPx) }

// Element 是可测量的文本节点：可设置内联字号并读回滚动尺寸。
// FontSize 返回 0 表示未设置内联字号（继承）。
type Element interface {
	FontSize() float64
	SetFontSize(px float64)
	ScrollSize() (width, height float64)
}

// StyleProbe 通过临时改写元素字号来探测尺寸，返回的 restore 会恢复探测前的字号。
func StyleProbe(el Element) (Prober, func()) {
	previous := el.FontSize()
	probe := ProbeFunc(func(px float64) (float64, float64) {
		el.SetFontSize(px)
		return el.ScrollSize()
	})
	return probe, func() { el.SetFontSize(previous) }
}

// Query 描述一次查找的输入。
type Query struct {
	Target Box
	// Scale 是当前已提交的倍率。
	Scale float64
	// DisplayScale 是宿主的显示缩放，<=0 视为 1（仅 Adaptive 使用）。
	DisplayScale float64
}

// Outcome 是一次查找的结果。
type Outcome struct {
	FontPx float64
	Scale  float64
	// Fitted 表示至少有一次探测完全放得下。
	Fitted bool
	// Failed 表示探测读到了零尺寸，结果不可信。
	Failed bool
	Probes int
}

// Search 二分查找能放进目标盒子的最大字号。
// 探测次数不超过 MaxIterations；目标盒子无效时直接返回当前倍率。
func Search(p Prober, q Query, v Variant) Outcome {
	prev := q.Scale
	if prev <= 0 {
		prev = 1
	}
	if !q.Target.Valid() {
		return Outcome{FontPx: prev * BaseFontSize, Scale: prev}
	}
	if v == Adaptive {
		return searchAdaptive(p, q.Target, prev, q.DisplayScale)
	}
	return searchBlock(p, q.Target, prev)
}

func searchBlock(p Prober, target Box, prev float64) Outcome {
	low := FontStep
	high := math.Min(BaseFontSize, target.Height)
	// 没有任何探测放得下时保留上一次的字号，不继续缩小：首次测量即为 BaseFontSize。
	best := prev * BaseFontSize
	out := Outcome{}

	for i := 0; i < MaxIterations && low <= high; i++ {
		mid := (low + high) / 2
		w, h := p.Probe(mid)
		out.Probes++
		if w == 0 || h == 0 {
			out.Failed = true
			break
		}
		if w <= target.Width && h <= target.Height {
			best = mid
			out.Fitted = true
			low = mid + FontStep
		} else {
			high = mid - FontStep
		}
	}

	font := clamp(best, FontStep, BaseFontSize)
	out.FontPx = font
	out.Scale = normalizeScale(math.Min(font/BaseFontSize, 1))
	return out
}

func searchAdaptive(p Prober, target Box, prev, display float64) Outcome {
	if display <= 0 {
		display = 1
	}
	availW := target.Width / display
	availH := target.Height / display
	dynamicMax := math.Max(FontStep, availH)
	previousBest := clamp(prev*BaseFontSize, FontStep, dynamicMax)

	low := FontStep
	high := dynamicMax
	best := previousBest
	mid := previousBest
	out := Outcome{}

	for i := 0; i < MaxIterations && low <= high; i++ {
		if i > 0 {
			mid = (low + high) / 2
		}
		sw, sh := p.Probe(mid)
		out.Probes++
		w, h := sw/display, sh/display
		if w == 0 || h == 0 {
			out.Failed = true
			break
		}
		if w <= availW+fitSlack && h <= availH+fitSlack {
			out.Fitted = true
			best = mid
			low = mid + FontStep
			// 宽、高两个方向的填充率都在 Epsilon 以内才提前结束；只有一个方向贴满时继续探测。
			if math.Abs(w/availW-1) < Epsilon && math.Abs(h/availH-1) < Epsilon {
				break
			}
		} else {
			high = mid - FontStep
		}
	}

	if out.Failed {
		out.FontPx = best
		out.Scale = prev
		return out
	}

	font := best
	if !out.Fitted {
		font = clamp(math.Min(high, best), FontStep, dynamicMax)
	}
	out.FontPx = font
	out.Scale = normalizeScale(clamp(math.Max(font, math.SmallestNonzeroFloat64)/BaseFontSize, 0, 1))
	return out
}

// normalizeScale 把接近 1 的值吸附到 1，其余保留三位小数以抑制浮点噪声。
func normalizeScale(v float64) float64 {
	if math.Abs(v-1) < Epsilon {
		return 1
	}
	return math.Round(v*1000) / 1000
}

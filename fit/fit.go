// Package fit 实现文本自适应排版：在目标盒子内二分查找最大可容纳的字号倍率，
// 并与宿主渲染器的延迟/继续（delay/continue）帧门控协议配合，保证布局收敛之前不会截取帧。
//
// 包内所有类型都只能在同一个事件循环中使用，不做加锁。
package fit

import "time"

const (
	// BaseFontSize 是倍率 1 所对应的参考字号（px）。
	BaseFontSize = 16.0
	// FontStep 是二分查找的最小步长，也是字号下限。
	FontStep = 0.5
	// MaxIterations 限制单次测量的探测次数。
	MaxIterations = 12
	// Epsilon 小于该差值的倍率变化视为噪声，不提交。
	Epsilon = 0.002
	// DebounceDelay 是触发后的静默窗口。
	DebounceDelay = 40 * time.Millisecond
	// RetryCount 是零尺寸读数之后的最大重试次数（仅 Adaptive）。
	RetryCount = 2

	fitSlack     = 0.5
	lineTopDelta = 0.5
)

// Variant 选择查找策略。
type Variant int

const (
	// Block 整块适配：上界为 min(BaseFontSize, 可用高度)，严格比较，零读数直接结束本轮。
	Block Variant = iota
	// Adaptive 考虑显示缩放、从上次结果起步、允许 0.5px 容差并在零读数时重试。
	Adaptive
)

func (v Variant) String() string {
	switch v {
	case Block:
		return "block"
	case Adaptive:
		return "adaptive"
	default:
		return "unknown"
	}
}

// ParseVariant 将配置中的名称转换为 Variant，无法识别时返回 false。
func ParseVariant(name string) (Variant, bool) {
	switch name {
	case "block", "simple":
		return Block, true
	case "adaptive", "segmented", "":
		return Adaptive, true
	default:
		return Block, false
	}
}

// Box 是目标宽高（宿主像素）。
type Box struct {
	Width  float64
	Height float64
}

// Valid 报告宽高是否均为正。
func (b Box) Valid() bool { return b.Width > 0 && b.Height > 0 }

// Rect 是单个字符的包围盒，Y 为顶部。
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Empty 报告该矩形是否未被绘制（宽高都为 0）。
func (r Rect) Empty() bool { return r.Width == 0 && r.Height == 0 }

// State 是一个 Fitter 的公开状态。
type State struct {
	Scale          float64 `json:"scale"`
	LastGoodFontPx float64 `json:"lastGoodFontPx"`
}

// FontPx 返回当前倍率对应的字号。
func (s State) FontPx() float64 { return s.Scale * BaseFontSize }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

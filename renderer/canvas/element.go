package canvasrenderer

import (
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/reelfit/fit"
	"github.com/ByLCY/reelfit/host"
	"github.com/ByLCY/reelfit/layout"
)

// Poster 把回调排到事件循环的下一个任务，host.Loop 满足该接口。
type Poster interface {
	Post(fn func()) (cancel func())
}

// ElementConfig 描述一个可测量文本元素。
type ElementConfig struct {
	Text string
	Font layout.FontResource
	// Em 是文字相对元素字号的倍数，<=0 视为 1。
	Em float64
	// LineHeight 是行高倍数，<=0 视为 1.2。
	LineHeight float64
	// WrapWidth 是折行宽度（逻辑 px），<=0 表示不折行。
	WrapWidth float64
	Wrap      string
	// PadX/PadY 是左右、上下内边距，以当前字号的倍数表示，计入滚动尺寸。
	PadX, PadY float64
	// Zoom 是显示缩放，测量结果以屏幕 px 返回。
	Zoom   float64
	Logger *log.Logger
}

var (
	_ fit.Element            = (*Element)(nil)
	_ fit.TextElement        = (*Element)(nil)
	_ fit.ResizeObservable   = (*Element)(nil)
	_ fit.MutationObservable = (*Element)(nil)
)

// Element 是基于真实字体度量的测量面：支持内联/继承字号、滚动尺寸、逐字符包围盒，
// 并在尺寸或内容变化后通过事件循环异步通知观察者。
type Element struct {
	r      *Renderer
	post   Poster
	cfg    ElementConfig
	logger *log.Logger

	text      string
	inline    float64
	inherited float64

	resize   *host.Notifier
	mutation *host.Notifier

	checkQueued  bool
	lastW, lastH float64
	cache        elementLayout
	err          error
}

type elementLayout struct {
	key   layoutKey
	lines []layout.TextLine
	rects []fit.Rect
	valid bool
}

type layoutKey struct {
	text  string
	px    float64
	width float64
	wrap  string
	zoom  float64
}

// NewElement 创建测量元素；post 为 nil 时通知同步派发。
func (r *Renderer) NewElement(cfg ElementConfig, post Poster) *Element {
	if cfg.Em <= 0 {
		cfg.Em = 1
	}
	if cfg.LineHeight <= 0 {
		cfg.LineHeight = 1.2
	}
	if cfg.Zoom <= 0 {
		cfg.Zoom = 1
	}
	cfg.Wrap = layout.NormalizeWrap(cfg.Wrap)
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	var postFn func(func()) func()
	if post != nil {
		postFn = post.Post
	}
	return &Element{
		r:         r,
		post:      post,
		cfg:       cfg,
		logger:    cfg.Logger,
		text:      cfg.Text,
		inherited: fit.BaseFontSize,
		resize:    host.NewNotifier(postFn),
		mutation:  host.NewNotifier(postFn),
	}
}

// FontSize 返回内联字号，0 表示继承。
func (e *Element) FontSize() float64 { return e.inline }

// SetFontSize 设置内联字号；<=0 清除内联字号。
func (e *Element) SetFontSize(px float64) {
	if px < 0 {
		px = 0
	}
	e.inline = px
	e.invalidate()
}

// InheritedFontSize 返回从外层继承的字号。
func (e *Element) InheritedFontSize() float64 { return e.inherited }

// SetInheritedFontSize 模拟外层容器应用新的字号倍率。
func (e *Element) SetInheritedFontSize(px float64) {
	if px <= 0 || px == e.inherited {
		return
	}
	e.inherited = px
	e.invalidate()
}

// EffectiveFontSize 返回文字实际使用的字号（px，逻辑单位）。
func (e *Element) EffectiveFontSize() float64 {
	base := e.inherited
	if e.inline > 0 {
		base = e.inline
	}
	return base * e.cfg.Em
}

// LineHeightPx 返回当前行高（px，逻辑单位）。
func (e *Element) LineHeightPx() float64 { return e.EffectiveFontSize() * e.cfg.LineHeight }

// Text 返回文本内容。
func (e *Element) Text() string { return e.text }

// SetText 替换文本内容并触发子树变化通知。
func (e *Element) SetText(text string) {
	if text == e.text {
		return
	}
	e.text = text
	e.mutation.Notify()
	e.invalidate()
}

// SetWrapWidth 修改折行宽度。
func (e *Element) SetWrapWidth(width float64) {
	if width == e.cfg.WrapWidth {
		return
	}
	e.cfg.WrapWidth = width
	e.invalidate()
}

// Zoom 返回显示缩放。
func (e *Element) Zoom() float64 { return e.cfg.Zoom }

// SetZoom 修改显示缩放。
func (e *Element) SetZoom(z float64) {
	if z <= 0 || z == e.cfg.Zoom {
		return
	}
	e.cfg.Zoom = z
	e.invalidate()
}

// Err 返回最近一次排版遇到的错误（例如字体无法加载）。
func (e *Element) Err() error { return e.err }

// ScrollSize 返回内容在屏幕上的宽高：最宽一行与所有行高之和，乘以显示缩放。
// 文本为空或排版失败时返回 0,0。
func (e *Element) ScrollSize() (float64, float64) {
	l := e.layout()
	if len(l.lines) == 0 || e.text == "" {
		return 0, 0
	}
	maxW := 0.0
	for _, line := range l.lines {
		if line.Width > maxW {
			maxW = line.Width
		}
	}
	h := float64(len(l.lines)) * e.LineHeightPx()
	padX, padY := e.Padding()
	return (maxW + 2*padX) * e.cfg.Zoom, (h + 2*padY) * e.cfg.Zoom
}

// Padding 返回当前字号下的左右、上下内边距（px，逻辑单位）。
func (e *Element) Padding() (x, y float64) {
	px := e.EffectiveFontSize()
	return e.cfg.PadX * px, e.cfg.PadY * px
}

// Lines 返回当前字号下的排版行（逻辑 px）。
func (e *Element) Lines() []layout.TextLine {
	return append([]layout.TextLine(nil), e.layout().lines...)
}

// RuneRect 返回第 i 个字符在屏幕上的包围盒；换行符等未绘制字符返回空矩形。
func (e *Element) RuneRect(i int) fit.Rect {
	l := e.layout()
	if i < 0 || i >= len(l.rects) {
		return fit.Rect{}
	}
	return l.rects[i]
}

// ObserveResize 实现 fit.ResizeObservable。
func (e *Element) ObserveResize(fn func()) func() { return e.resize.Subscribe(fn) }

// ObserveMutation 实现 fit.MutationObservable。
func (e *Element) ObserveMutation(fn func()) func() { return e.mutation.Subscribe(fn) }

// invalidate 在下一个任务检查尺寸，变化时通知 resize 观察者。
// 同一任务内的临时修改（例如探测后立即恢复字号）不会产生通知。
func (e *Element) invalidate() {
	if e.post == nil {
		e.checkSize()
		return
	}
	if e.checkQueued {
		return
	}
	e.checkQueued = true
	e.post.Post(e.checkSize)
}

func (e *Element) checkSize() {
	e.checkQueued = false
	w, h := e.ScrollSize()
	if w == e.lastW && h == e.lastH {
		return
	}
	e.lastW, e.lastH = w, h
	e.resize.Notify()
}

func (e *Element) layout() elementLayout {
	key := layoutKey{text: e.text, px: e.EffectiveFontSize(), width: e.cfg.WrapWidth, wrap: e.cfg.Wrap, zoom: e.cfg.Zoom}
	if e.cache.valid && e.cache.key == key {
		return e.cache
	}
	e.cache = elementLayout{key: key, valid: true}
	if key.text == "" || key.px <= 0 {
		return e.cache
	}
	face, err := e.r.fontFace(e.cfg.Font, key.px, layout.Color{})
	if err != nil {
		if e.err == nil {
			e.logger.Warn("字体加载失败，元素无法测量", "font", e.cfg.Font.Name, "err", err)
		}
		e.err = err
		return e.cache
	}
	e.err = nil
	lineH := key.px * e.cfg.LineHeight
	lines := wrapLines(key.text, key.width, face, key.wrap)
	for i := range lines {
		lines[i].Height = lineH
	}
	e.cache.lines = lines
	padX, padY := e.Padding()
	e.cache.rects = runeRects(key.text, lines, face, lineH, key.zoom)
	for i := range e.cache.rects {
		if !e.cache.rects[i].Empty() {
			e.cache.rects[i].X += padX * key.zoom
			e.cache.rects[i].Y += padY * key.zoom
		}
	}
	return e.cache
}

// runeRects 把原文中的每个字符映射到所在行，计算其屏幕包围盒。
func runeRects(text string, lines []layout.TextLine, face textWidther, lineH, zoom float64) []fit.Rect {
	rects := make([]fit.Rect, 0, utf8.RuneCountInString(text))
	lineIdx := 0
	var remaining string
	if len(lines) > 0 {
		remaining = lines[0].Content
	}
	x := 0.0
	for _, r := range text {
		if r == '\n' || r == '\r' {
			rects = append(rects, fit.Rect{})
			continue
		}
		for remaining == "" && lineIdx+1 < len(lines) {
			lineIdx++
			remaining = lines[lineIdx].Content
			x = 0
		}
		_, size := utf8.DecodeRuneInString(remaining)
		remaining = remaining[size:]
		w := face.TextWidth(string(r))
		rects = append(rects, fit.Rect{
			X:      x * zoom,
			Y:      float64(lineIdx) * lineH * zoom,
			Width:  w * zoom,
			Height: lineH * zoom,
		})
		x += w
	}
	return rects
}

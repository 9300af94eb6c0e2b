package scene

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/reelfit/binding"
	"github.com/ByLCY/reelfit/fit"
	"github.com/ByLCY/reelfit/host"
	"github.com/ByLCY/reelfit/layout"
	canvasrenderer "github.com/ByLCY/reelfit/renderer/canvas"
	"github.com/ByLCY/reelfit/template"
)

// Options 配置 Stage。
type Options struct {
	// Renderer 提供字体度量，nil 时创建一个以当前目录为资源目录的渲染器。
	Renderer *canvasrenderer.Renderer
	// Variant 是节点未声明 fit 时的默认策略。
	Variant  fit.Variant
	Debounce time.Duration
	Retries  int
	// Zoom 是显示缩放，测量在屏幕像素下进行。
	Zoom float64
	// Budget 是等待收敛的虚拟时间上限，<=0 使用 host.DefaultSettleBudget。
	Budget time.Duration
	Logger *log.Logger
}

// Stage 持有一条模板数据对应的全部文本元素，以及驱动它们的事件循环与帧门控。
type Stage struct {
	spec   *Spec
	data   template.VideoData
	opts   Options
	logger *log.Logger

	loop *host.Loop
	pipe *host.Pipeline

	width, height float64
	root          *binding.Scope
	scope         *binding.Scope
	selected      int
	items         []*item
	closed        bool
}

type item struct {
	node   Node
	x, y   float64
	w, h   float64
	font   string
	el     *canvasrenderer.Element
	fitter *fit.Fitter
	lines  *fit.LineTracker

	segments []string
	color    layout.Color
	fill     layout.Color
}

// Build 为 data 创建场景中的所有元素并开始首次测量；调用 Settle 等待收敛。
func Build(spec *Spec, data template.VideoData, opts Options) (*Stage, error) {
	if spec == nil {
		return nil, fmt.Errorf("场景为空")
	}
	if opts.Renderer == nil {
		opts.Renderer = canvasrenderer.NewRenderer(".")
	}
	if opts.Zoom <= 0 {
		opts.Zoom = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	root, err := binding.NewScope(data)
	if err != nil {
		return nil, err
	}

	s := &Stage{
		spec:   spec,
		data:   data,
		opts:   opts,
		logger: opts.Logger.WithPrefix(spec.Name),
		loop:   host.NewLoop(),
		pipe:   host.NewPipeline(opts.Logger),
		root:   root,
	}
	s.width, s.height = template.Dimensions(data.Ratio)
	s.scope = s.highlightScope(0)

	for _, node := range spec.Nodes {
		it, err := s.newItem(node)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.items = append(s.items, it)
	}
	for _, it := range s.items {
		it.fitter.Mount()
		it.lines.Mount()
	}
	return s, nil
}

func (s *Stage) highlightScope(i int) *binding.Scope {
	if i < 0 || i >= len(s.data.Highlights) {
		return s.root
	}
	return s.root.With("highlight", s.data.Highlights[i])
}

func (s *Stage) newItem(node Node) (*item, error) {
	it := &item{
		node: node,
		x:    node.Box[0].Px(s.width, 0),
		y:    node.Box[1].Px(s.height, 0),
		w:    node.Box[2].Px(s.width, 0),
		h:    node.Box[3].Px(s.height, 0),
	}
	if it.w <= 0 || it.h <= 0 {
		return nil, fmt.Errorf("节点 %s 的区域无效: %gx%g", node.Name, it.w, it.h)
	}

	variant := s.opts.Variant
	if node.Fit != "" {
		variant, _ = fit.ParseVariant(node.Fit)
	}

	font := s.spec.Fonts[node.Font]
	it.font = node.Font
	em := node.Size.Em(fit.BaseFontSize)
	padY := node.Padding[0].Em(fit.BaseFontSize * em)
	padX := node.Padding[1].Em(fit.BaseFontSize * em)
	wrapWidth := 0.0
	if node.Wrap != layout.WrapNone {
		// 内边距随字号变化，这里按倍率 1 估算可用宽度。
		wrapWidth = it.w - 2*padX*fit.BaseFontSize*em
	}

	content, err := s.bind(it)
	if err != nil {
		return nil, err
	}
	it.el = s.opts.Renderer.NewElement(canvasrenderer.ElementConfig{
		Text:       content,
		Font:       font,
		Em:         em,
		LineHeight: node.LineHeight,
		WrapWidth:  wrapWidth,
		Wrap:       node.Wrap,
		PadX:       padX,
		PadY:       padY,
		Zoom:       s.opts.Zoom,
		Logger:     s.opts.Logger,
	}, s.loop)

	el := it.el
	it.fitter = fit.NewFitter(el, s.loop, s.pipe, fit.Options{
		Variant:      variant,
		Label:        "fit " + node.Name,
		Debounce:     s.opts.Debounce,
		Retries:      s.opts.Retries,
		DisplayScale: func() float64 { return el.Zoom() },
		OnScale:      func(scale float64) { el.SetInheritedFontSize(scale * fit.BaseFontSize) },
		Logger:       s.opts.Logger,
	})
	it.fitter.SetBounds(it.w*s.opts.Zoom, it.h*s.opts.Zoom)
	it.lines = fit.NewLineTracker(el, s.loop, s.pipe, fit.LineOptions{
		Label:    "lines " + node.Name,
		Debounce: s.opts.Debounce,
		OnChange: func(segments []string) { it.segments = segments },
		Logger:   s.opts.Logger,
	})
	return it, nil
}

// bind 用当前作用域解析节点的文本与颜色，返回文本内容。
func (s *Stage) bind(it *item) (string, error) {
	// 缺少数据的节点不显示，空文本不会参与测量。
	content, missing := s.scope.Interpolate(it.node.Content)
	if len(missing) > 0 {
		s.logger.Debug("占位符没有对应的数据，隐藏节点", "node", it.node.Name, "missing", strings.Join(missing, ","))
		content = ""
	}

	fillHex := ""
	if it.node.Fill != "" {
		hex, missing := s.scope.Interpolate(it.node.Fill)
		if len(missing) == 0 {
			fill, err := template.ParseColor(hex)
			if err != nil {
				return "", fmt.Errorf("节点 %s 的背景色: %w", it.node.Name, err)
			}
			fillHex, it.fill = hex, fill
		}
	}

	colorHex, _ := s.scope.Interpolate(it.node.Color)
	if colorHex == ContrastKeyword {
		colorHex = template.ContrastColor(fillHex)
	}
	c, err := template.ParseColor(colorHex)
	if err != nil {
		return "", fmt.Errorf("节点 %s 的文字颜色: %w", it.node.Name, err)
	}
	it.color = c
	return content, nil
}

// Select 切换当前高亮条目，文本变化会触发重新测量。
func (s *Stage) Select(i int) error {
	if len(s.data.Highlights) == 0 && i == 0 {
		return nil
	}
	if i < 0 || i >= len(s.data.Highlights) {
		return fmt.Errorf("高亮下标 %d 越界（共 %d 条）", i, len(s.data.Highlights))
	}
	if s.closed {
		return fmt.Errorf("stage 已关闭")
	}
	s.selected = i
	s.scope = s.highlightScope(i)
	for _, it := range s.items {
		content, err := s.bind(it)
		if err != nil {
			return err
		}
		if content == it.el.Text() {
			continue
		}
		// 与重新渲染一致：文本一变立即持有帧门控，不等异步的变化通知。
		it.el.SetText(content)
		it.fitter.Trigger()
		it.lines.Invalidate()
	}
	return nil
}

// Settle 运行事件循环直到所有测量完成、帧门控全部释放。
func (s *Stage) Settle(ctx context.Context) error {
	return s.pipe.Settle(ctx, s.loop, s.opts.Budget)
}

// Ready 报告当前是否可以截取帧。
func (s *Stage) Ready() bool { return s.pipe.Ready() && s.loop.Idle() }

// Size 返回帧尺寸。
func (s *Stage) Size() (width, height float64) { return s.width, s.height }

// Scale 返回节点当前的适配倍率，节点不存在时返回 0。
func (s *Stage) Scale(name string) float64 {
	if it := s.find(name); it != nil {
		return it.fitter.Scale()
	}
	return 0
}

// Segments 返回节点当前的视觉行切分。
func (s *Stage) Segments(name string) []string {
	if it := s.find(name); it != nil {
		return append([]string(nil), it.segments...)
	}
	return nil
}

// Element 返回节点对应的测量元素。
func (s *Stage) Element(name string) *canvasrenderer.Element {
	if it := s.find(name); it != nil {
		return it.el
	}
	return nil
}

func (s *Stage) find(name string) *item {
	for _, it := range s.items {
		if it.node.Name == name {
			return it
		}
	}
	return nil
}

// Frame 生成当前状态的静态帧；仍有未释放的帧门控时返回 host.ErrFrameBlocked。
func (s *Stage) Frame(name string) (*layout.Frame, error) {
	if !s.pipe.Ready() {
		return nil, fmt.Errorf("%w: %s", host.ErrFrameBlocked, strings.Join(s.pipe.Pending(), ", "))
	}
	frame := &layout.Frame{
		Name:       name,
		Width:      s.width,
		Height:     s.height,
		Background: s.spec.Background,
		Fonts:      map[string]layout.FontResource{},
	}
	for key, font := range s.spec.Fonts {
		frame.Fonts[key] = font
	}
	for _, it := range s.items {
		if it.el.Text() == "" {
			continue
		}
		lines := it.el.Lines()
		lineH := it.el.LineHeightPx()
		tb := layout.TextBox{
			Name:       it.node.Name,
			Content:    it.el.Text(),
			X:          it.x,
			Y:          it.y,
			Width:      it.w,
			Height:     it.h,
			Font:       it.font,
			FontSize:   it.el.EffectiveFontSize(),
			LineHeight: lineH,
			Color:      it.color,
			Align:      it.node.Align,
			Lines:      lines,
			Scale:      it.fitter.Scale(),
		}
		if it.node.Kind == KindHighlight {
			padX, padY := it.el.Padding()
			maxW := 0.0
			for _, ln := range lines {
				maxW = max(maxW, ln.Width)
			}
			rw := maxW + 2*padX
			rh := float64(len(lines))*lineH + 2*padY
			rect := layout.Rect{
				X:      it.x + (it.w-rw)/2,
				Y:      it.y + (it.h-rh)/2,
				Width:  rw,
				Height: rh,
				Radius: it.node.Radius.Px(0, tb.FontSize),
				Fill:   it.fill,
			}
			frame.Rects = append(frame.Rects, rect)
			tb.X, tb.Y, tb.Width, tb.Height = rect.X+padX, rect.Y+padY, maxW, rh-2*padY
		}
		frame.Texts = append(frame.Texts, tb)
	}
	return frame, nil
}

// Close 销毁所有 Fitter 与 LineTracker，释放仍持有的帧门控。
func (s *Stage) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, it := range s.items {
		it.fitter.Dispose()
		it.lines.Dispose()
	}
}

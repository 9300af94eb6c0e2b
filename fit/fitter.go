package fit

import (
	"math"
	"time"

	"github.com/charmbracelet/log"
)

// ResizeObservable 由能报告尺寸变化的元素实现。
type ResizeObservable interface {
	ObserveResize(fn func()) (stop func())
}

// MutationObservable 由能报告子树内容变化的元素实现。
type MutationObservable interface {
	ObserveMutation(fn func()) (stop func())
}

// TextHolder 由能直接读取文本内容的元素实现，用于识别空文本。
type TextHolder interface {
	Text() string
}

// Options 配置 Fitter。零值使用默认参数与 Block 策略。
type Options struct {
	Variant  Variant
	Label    string
	Debounce time.Duration
	// Retries 为负数时不重试；0 使用 RetryCount。
	Retries int
	// DisplayScale 返回宿主当前的显示缩放，nil 视为 1。
	DisplayScale func() float64
	// OnScale 在公开倍率变化时调用。
	OnScale func(scale float64)
	Logger  *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Label == "" {
		o.Label = "fit measure"
	}
	if o.Debounce <= 0 {
		o.Debounce = DebounceDelay
	}
	switch {
	case o.Retries == 0:
		o.Retries = RetryCount
	case o.Retries < 0:
		o.Retries = 0
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Fitter 把一个文本元素缩放到目标盒子内，并在测量完成前持有帧门控。
type Fitter struct {
	el      Element
	gate    *Gate
	pass    *pass
	opts    Options
	logger  *log.Logger
	target  Box
	state   State
	lastRaw float64 // 最近一次计算出的倍率，作为下次查找的起点

	retries   int
	measuring bool
	mounted   bool
	disposed  bool
	stops     []func()
	passes    int
}

// NewFitter 创建 Fitter；调用 Mount 之后才会开始测量。
func NewFitter(el Element, sched Scheduler, gater Gater, opts Options) *Fitter {
	opts = opts.withDefaults()
	f := &Fitter{
		el:      el,
		gate:    NewGate(gater, opts.Label),
		opts:    opts,
		logger:  opts.Logger.WithPrefix(opts.Label),
		state:   State{Scale: 1, LastGoodFontPx: BaseFontSize},
		lastRaw: 1,
		retries: opts.Retries,
	}
	f.pass = newPass(sched, opts.Debounce, f.measure)
	return f
}

// Mount 订阅元素的变化通知并安排首次测量。
func (f *Fitter) Mount() {
	if f.disposed || f.mounted {
		return
	}
	f.mounted = true
	if f.el != nil {
		if ro, ok := f.el.(ResizeObservable); ok {
			f.stops = append(f.stops, ro.ObserveResize(f.Trigger))
		}
		if f.opts.Variant == Adaptive {
			if mo, ok := f.el.(MutationObservable); ok {
				f.stops = append(f.stops, mo.ObserveMutation(f.Trigger))
			}
		}
	}
	f.Trigger()
}

// SetBounds 更新目标宽高；变化时重新测量。
func (f *Fitter) SetBounds(width, height float64) {
	next := Box{Width: width, Height: height}
	if next == f.target {
		return
	}
	f.target = next
	if f.mounted {
		f.Trigger()
	}
}

// Trigger 表示“有东西变了”：持有门控并重新开始静默窗口。
func (f *Fitter) Trigger() {
	if f.disposed {
		return
	}
	f.gate.Start()
	f.pass.schedule()
}

// Scale 返回已提交的倍率，范围 (0, 1]。
func (f *Fitter) Scale() float64 { return f.state.Scale }

// State 返回当前状态快照。
func (f *Fitter) State() State { return f.state }

// Passes 返回已完成的测量轮数。
func (f *Fitter) Passes() int { return f.passes }

// Pending 报告是否仍有待执行的测量或未释放的门控。
func (f *Fitter) Pending() bool { return f.pass.pending() || f.gate.Held() }

// Dispose 断开所有观察者、取消待执行任务并释放门控。之后的触发都是空操作。
func (f *Fitter) Dispose() {
	if f.disposed {
		return
	}
	f.disposed = true
	for _, stop := range f.stops {
		stop()
	}
	f.stops = nil
	f.pass.stop()
	f.gate.Close()
}

func (f *Fitter) measure() {
	if f.disposed || f.measuring {
		return
	}
	if f.el == nil || !f.target.Valid() {
		f.gate.Ready()
		return
	}
	if th, ok := f.el.(TextHolder); ok && th.Text() == "" {
		f.gate.Ready()
		return
	}

	out := f.search()
	f.passes++

	if out.Failed && f.opts.Variant == Adaptive {
		if f.retries > 0 {
			f.retries--
			f.logger.Debug("零尺寸读数，下一帧重试", "left", f.retries)
			f.pass.nextFrame()
			return
		}
		f.retries = f.opts.Retries
		f.logger.Warn("测量始终没有结果，放行当前帧", "scale", f.state.Scale)
		f.gate.Ready()
		return
	}
	f.retries = f.opts.Retries

	f.lastRaw = out.Scale
	if out.Fitted {
		f.state.LastGoodFontPx = out.FontPx
	}
	if math.Abs(out.Scale-f.state.Scale) > Epsilon {
		f.state.Scale = out.Scale
		f.logger.Debug("倍率更新", "scale", out.Scale, "font", out.FontPx, "probes", out.Probes)
		if f.opts.OnScale != nil {
			f.opts.OnScale(out.Scale)
		}
	}
	f.gate.Ready()
}

func (f *Fitter) search() Outcome {
	f.measuring = true
	prober, restore := StyleProbe(f.el)
	defer func() {
		restore()
		f.measuring = false
	}()

	display := 1.0
	if f.opts.DisplayScale != nil {
		display = f.opts.DisplayScale()
	}
	return Search(prober, Query{Target: f.target, Scale: f.lastRaw, DisplayScale: display}, f.opts.Variant)
}

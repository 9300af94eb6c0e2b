package fit

import (
	"time"

	"github.com/charmbracelet/log"
)

// TextElement 提供文本内容与逐字符的包围盒。
type TextElement interface {
	TextHolder
	RuneMeasurer
}

// LineOptions 配置 LineTracker。
type LineOptions struct {
	Label    string
	Debounce time.Duration
	// OnChange 在行切分结果变化时调用，参数不会被之后的测量修改。
	OnChange func(segments []string)
	Logger   *log.Logger
}

// LineTracker 跟踪元素当前的视觉行切分。
type LineTracker struct {
	el       TextElement
	gate     *Gate
	pass     *pass
	opts     LineOptions
	logger   *log.Logger
	segments []string
	mounted  bool
	disposed bool
	stops    []func()
}

// NewLineTracker 创建 LineTracker。
func NewLineTracker(el TextElement, sched Scheduler, gater Gater, opts LineOptions) *LineTracker {
	if opts.Label == "" {
		opts.Label = "line segments measure"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DebounceDelay
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	t := &LineTracker{
		el:     el,
		gate:   NewGate(gater, opts.Label),
		opts:   opts,
		logger: opts.Logger.WithPrefix(opts.Label),
	}
	t.pass = newPass(sched, opts.Debounce, t.measure)
	return t
}

// Mount 订阅元素变化并安排首次切分。
func (t *LineTracker) Mount() {
	if t.disposed || t.mounted {
		return
	}
	t.mounted = true
	if t.el != nil {
		if ro, ok := t.el.(ResizeObservable); ok {
			t.stops = append(t.stops, ro.ObserveResize(t.trigger))
		}
		if mo, ok := t.el.(MutationObservable); ok {
			t.stops = append(t.stops, mo.ObserveMutation(t.trigger))
		}
	}
	t.Invalidate()
}

// Invalidate 在文本变化后调用：持有门控，等两帧（字号先落定）再切分。
func (t *LineTracker) Invalidate() {
	if t.disposed {
		return
	}
	t.gate.Start()
	t.pass.afterFrames(2)
}

func (t *LineTracker) trigger() {
	if t.disposed {
		return
	}
	t.gate.Start()
	t.pass.schedule()
}

// Segments 返回最近一次提交的行切分。
func (t *LineTracker) Segments() []string { return t.segments }

// Pending 报告是否仍有待执行的切分或未释放的门控。
func (t *LineTracker) Pending() bool { return t.pass.pending() || t.gate.Held() }

// Dispose 断开观察者、取消任务并释放门控。
func (t *LineTracker) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	for _, stop := range t.stops {
		stop()
	}
	t.stops = nil
	t.pass.stop()
	t.gate.Close()
}

func (t *LineTracker) measure() {
	if t.disposed {
		return
	}
	defer t.gate.Ready()
	if t.el == nil {
		return
	}
	next := Segment(t.el.Text(), t.el)
	if SameSegments(t.segments, next) {
		return
	}
	t.segments = next
	t.logger.Debug("行切分更新", "lines", len(next))
	if t.opts.OnChange != nil {
		t.opts.OnChange(append([]string(nil), next...))
	}
}

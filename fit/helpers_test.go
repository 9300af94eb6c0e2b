package fit

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

var quiet = log.New(io.Discard)

type fakeTimer struct {
	at        time.Duration
	fn        func()
	cancelled bool
}

// fakeScheduler 是测试用的虚拟时钟：定时器按到期时间执行，帧间隔 16ms。
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
	frames []*fakeTimer
	ran    int
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := &fakeTimer{at: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.cancelled = true }
}

func (s *fakeScheduler) RequestFrame(fn func()) func() {
	t := &fakeTimer{fn: fn}
	s.frames = append(s.frames, t)
	return func() { t.cancelled = true }
}

func live(ts []*fakeTimer) []*fakeTimer {
	out := ts[:0]
	for _, t := range ts {
		if !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}

func (s *fakeScheduler) pending() int {
	s.timers = live(s.timers)
	s.frames = live(s.frames)
	return len(s.timers) + len(s.frames)
}

func (s *fakeScheduler) run(t *testing.T) {
	t.Helper()
	for i := 0; s.pending() > 0; i++ {
		if i > 10000 {
			t.Fatalf("调度没有收敛")
		}
		next := -1
		for j, tm := range s.timers {
			if next < 0 || tm.at < s.timers[next].at {
				next = j
			}
		}
		frameAt := s.now + 16*time.Millisecond
		if next >= 0 && (len(s.frames) == 0 || s.timers[next].at <= frameAt) {
			tm := s.timers[next]
			s.timers = append(s.timers[:next], s.timers[next+1:]...)
			if tm.at > s.now {
				s.now = tm.at
			}
			tm.fn()
			continue
		}
		batch := s.frames
		s.frames = nil
		s.now = frameAt
		s.ran++
		for _, f := range batch {
			if !f.cancelled {
				f.fn()
			}
		}
	}
}

// countingGater 记录令牌的发放与释放。
type countingGater struct {
	next     Handle
	held     map[Handle]string
	acquired int
	released int
	unknown  int
}

func newCountingGater() *countingGater { return &countingGater{held: map[Handle]string{}} }

func (g *countingGater) Acquire(label string) Handle {
	g.next++
	g.held[g.next] = label
	g.acquired++
	return g.next
}

func (g *countingGater) Release(h Handle) {
	if _, ok := g.held[h]; !ok {
		g.unknown++
		return
	}
	delete(g.held, h)
	g.released++
}

// linearProbe 模拟宽 300、高 50（在 16px 时）且与字号成正比的内容。
func linearProbe(px float64) (float64, float64) { return 300 * px / 16, 50 * px / 16 }

// fakeElement 是按字号线性缩放的文本元素。
type fakeElement struct {
	inline    float64
	inherited float64
	text      string
	zero      bool
	resize    map[int]func()
	mutation  map[int]func()
	nextID    int
	maxInline float64
}

func newFakeElement(text string) *fakeElement {
	return &fakeElement{inherited: BaseFontSize, text: text, resize: map[int]func(){}, mutation: map[int]func(){}}
}

func (e *fakeElement) FontSize() float64 { return e.inline }
func (e *fakeElement) SetFontSize(px float64) {
	e.inline = px
	if px > e.maxInline {
		e.maxInline = px
	}
}

func (e *fakeElement) ScrollSize() (float64, float64) {
	if e.zero {
		return 0, 0
	}
	px := e.inherited
	if e.inline > 0 {
		px = e.inline
	}
	return linearProbe(px)
}

func (e *fakeElement) Text() string { return e.text }

func (e *fakeElement) ObserveResize(fn func()) func() { return e.observe(e.resize, fn) }

func (e *fakeElement) ObserveMutation(fn func()) func() { return e.observe(e.mutation, fn) }

func (e *fakeElement) observe(m map[int]func(), fn func()) func() {
	id := e.nextID
	e.nextID++
	m[id] = fn
	return func() { delete(m, id) }
}

func fire(m map[int]func()) {
	for _, fn := range m {
		fn()
	}
}

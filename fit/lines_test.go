package fit

import "testing"

// wrappedText 按每行固定字符数折行，字符高 10px。
type wrappedText struct {
	*fakeElement
	perLine int
}

func (w *wrappedText) RuneRect(i int) Rect {
	return Rect{X: float64(i%w.perLine) * 6, Y: float64(i/w.perLine) * 10, Width: 6, Height: 10}
}

func newWrappedText(text string, perLine int) *wrappedText {
	return &wrappedText{fakeElement: newFakeElement(text), perLine: perLine}
}

func TestLineTrackerSegmentsAfterTwoFrames(t *testing.T) {
	s := &fakeScheduler{}
	g := newCountingGater()
	el := newWrappedText("abcdef", 4)
	var changes [][]string
	lt := NewLineTracker(el, s, g, LineOptions{Logger: quiet, OnChange: func(seg []string) { changes = append(changes, seg) }})
	lt.Mount()
	if lt.Segments() != nil {
		t.Fatalf("挂载时不应同步切分")
	}
	s.run(t)
	if s.ran != 2 {
		t.Fatalf("应等待两帧再切分，实际 %d 帧", s.ran)
	}
	if got := lt.Segments(); len(got) != 2 || got[0] != "abcd" || got[1] != "ef" {
		t.Fatalf("切分结果 %q", got)
	}
	if len(changes) != 1 || len(g.held) != 0 {
		t.Fatalf("期望一次回调且门控释放: changes=%d held=%d", len(changes), len(g.held))
	}
}

func TestLineTrackerReactsToChanges(t *testing.T) {
	s := &fakeScheduler{}
	g := newCountingGater()
	el := newWrappedText("abcdef", 4)
	changes := 0
	lt := NewLineTracker(el, s, g, LineOptions{Logger: quiet, OnChange: func([]string) { changes++ }})
	lt.Mount()
	s.run(t)

	el.perLine = 3
	fire(el.resize)
	s.run(t)
	if got := lt.Segments(); len(got) != 2 || got[0] != "abc" {
		t.Fatalf("resize 后切分 %q", got)
	}

	fire(el.resize)
	s.run(t)
	if changes != 2 {
		t.Fatalf("结果不变时不应回调，实际 %d 次", changes)
	}

	el.text = "abcdefghi"
	fire(el.mutation)
	s.run(t)
	if changes != 3 || len(lt.Segments()) != 3 {
		t.Fatalf("内容变化后应重新切分: %q", lt.Segments())
	}
	if g.acquired != g.released || len(g.held) != 0 {
		t.Fatalf("门控不平衡: %d/%d", g.acquired, g.released)
	}
}

func TestLineTrackerCallbackGetsCopy(t *testing.T) {
	s := &fakeScheduler{}
	el := newWrappedText("abcdef", 3)
	lt := NewLineTracker(el, s, nil, LineOptions{Logger: quiet, OnChange: func(seg []string) { seg[0] = "mutated" }})
	lt.Mount()
	s.run(t)
	if lt.Segments()[0] != "abc" {
		t.Fatalf("回调修改参数不应影响内部状态")
	}
}

func TestLineTrackerDispose(t *testing.T) {
	s := &fakeScheduler{}
	g := newCountingGater()
	el := newWrappedText("abcdef", 3)
	lt := NewLineTracker(el, s, g, LineOptions{Logger: quiet, OnChange: func([]string) { t.Fatalf("销毁后不应回调") }})
	lt.Mount()
	lt.Dispose()
	s.run(t)
	if len(g.held) != 0 || lt.Pending() {
		t.Fatalf("销毁后不应留下门控或任务")
	}
	lt.Invalidate()
	if g.acquired != 1 {
		t.Fatalf("销毁后 Invalidate 不应申请门控")
	}
}

func TestLineTrackerEmptyText(t *testing.T) {
	s := &fakeScheduler{}
	g := newCountingGater()
	lt := NewLineTracker(newWrappedText("", 3), s, g, LineOptions{Logger: quiet})
	lt.Mount()
	s.run(t)
	if lt.Segments() != nil || len(g.held) != 0 {
		t.Fatalf("空文本应得到 nil 且释放门控")
	}
}

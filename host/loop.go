// Package host 模拟宿主渲染环境：单线程事件循环（定时器 + 动画帧）、
// 帧截取门控计数以及异步变化通知。时钟是虚拟的，离线渲染时无需真实等待。
package host

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"time"
)

// FrameInterval 是两帧之间的虚拟时间。
const FrameInterval = 16 * time.Millisecond

// ErrBudgetExceeded 表示在虚拟时间预算内事件循环没有空闲下来。
var ErrBudgetExceeded = errors.New("事件循环超出时间预算")

type task struct {
	at        time.Duration
	seq       uint64
	fn        func()
	cancelled bool
	index     int
}

type timerQueue []*task

func (q timerQueue) Len() int { return len(q) }
func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}
func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *timerQueue) Push(x any) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}
func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Loop 是单线程的虚拟时钟事件循环。所有回调都在调用 Step/RunUntilIdle 的 goroutine 上执行。
type Loop struct {
	now       time.Duration
	lastFrame time.Duration
	seq       uint64
	timers    timerQueue
	frames    []*task
	frameNo   int
}

// NewLoop 创建一个时钟为 0 的事件循环。
func NewLoop() *Loop { return &Loop{} }

// Now 返回虚拟时间。
func (l *Loop) Now() time.Duration { return l.now }

// Frames 返回已经执行过的帧数。
func (l *Loop) Frames() int { return l.frameNo }

// AfterFunc 在 d 之后执行 fn。
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() {
	if d < 0 {
		d = 0
	}
	l.seq++
	t := &task{at: l.now + d, seq: l.seq, fn: fn}
	heap.Push(&l.timers, t)
	return func() { t.cancelled = true }
}

// Post 把 fn 排到当前任务之后执行。
func (l *Loop) Post(fn func()) func() { return l.AfterFunc(0, fn) }

// RequestFrame 在下一帧执行 fn；帧回调中再次申请的回调会排到再下一帧。
func (l *Loop) RequestFrame(fn func()) func() {
	l.seq++
	t := &task{seq: l.seq, fn: fn}
	l.frames = append(l.frames, t)
	return func() { t.cancelled = true }
}

// Pending 返回尚未执行且未取消的定时器与帧回调数量。
func (l *Loop) Pending() (timers, frames int) {
	for _, t := range l.timers {
		if !t.cancelled {
			timers++
		}
	}
	for _, t := range l.frames {
		if !t.cancelled {
			frames++
		}
	}
	return timers, frames
}

// Idle 报告是否没有任何待执行的回调。
func (l *Loop) Idle() bool {
	timers, frames := l.Pending()
	return timers == 0 && frames == 0
}

func (l *Loop) nextFrameAt() time.Duration {
	at := l.lastFrame + FrameInterval
	if at < l.now {
		at = l.now
	}
	return at
}

func (l *Loop) dropCancelled() {
	for l.timers.Len() > 0 && l.timers[0].cancelled {
		heap.Pop(&l.timers)
	}
	live := l.frames[:0]
	for _, t := range l.frames {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(l.frames); i++ {
		l.frames[i] = nil
	}
	l.frames = live
}

// Step 执行下一个事件（一个定时器或一整帧），没有事件时返回 false。
// 同一时刻到期的定时器先于帧执行。
func (l *Loop) Step() bool {
	l.dropCancelled()
	hasTimer := l.timers.Len() > 0
	hasFrame := len(l.frames) > 0
	switch {
	case !hasTimer && !hasFrame:
		return false
	case hasTimer && (!hasFrame || l.timers[0].at <= l.nextFrameAt()):
		t := heap.Pop(&l.timers).(*task)
		if t.at > l.now {
			l.now = t.at
		}
		t.fn()
	default:
		l.runFrame()
	}
	return true
}

func (l *Loop) runFrame() {
	l.now = l.nextFrameAt()
	l.lastFrame = l.now
	l.frameNo++
	batch := l.frames
	l.frames = nil
	for _, t := range batch {
		if !t.cancelled {
			t.fn()
		}
	}
}

// Frame 立即执行当前排队的帧回调，返回执行的数量。
func (l *Loop) Frame() int {
	l.dropCancelled()
	n := len(l.frames)
	if n > 0 {
		l.runFrame()
	}
	return n
}

// Advance 让虚拟时间前进 d，期间到期的定时器与帧按顺序执行。
func (l *Loop) Advance(d time.Duration) {
	deadline := l.now + d
	for {
		l.dropCancelled()
		next, ok := l.nextEventAt()
		if !ok || next > deadline {
			break
		}
		l.Step()
	}
	if l.now < deadline {
		l.now = deadline
	}
}

func (l *Loop) nextEventAt() (time.Duration, bool) {
	hasTimer := l.timers.Len() > 0
	hasFrame := len(l.frames) > 0
	switch {
	case hasTimer && hasFrame:
		return min(l.timers[0].at, l.nextFrameAt()), true
	case hasTimer:
		return l.timers[0].at, true
	case hasFrame:
		return l.nextFrameAt(), true
	default:
		return 0, false
	}
}

// RunUntilIdle 不断执行事件直到循环空闲。budget 是允许消耗的虚拟时间，<=0 表示不限。
func (l *Loop) RunUntilIdle(ctx context.Context, budget time.Duration) error {
	start := l.now
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.Step() {
			return nil
		}
		if budget > 0 && l.now-start > budget {
			timers, frames := l.Pending()
			return fmt.Errorf("%w: %s 后仍有 %d 个定时器、%d 个帧回调", ErrBudgetExceeded, budget, timers, frames)
		}
	}
}

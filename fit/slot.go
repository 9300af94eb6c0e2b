package fit

import "time"

// Scheduler 是宿主事件循环提供的调度能力。返回的 cancel 可以重复调用。
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
	RequestFrame(fn func()) (cancel func())
}

// Slot 最多保存一个待执行任务；新的任务会先取消旧任务。
type Slot struct {
	cancel func()
	gen    uint64
}

// Replace 取消已有任务，并通过 start 登记新任务。start 负责把 run 交给调度器并返回取消函数。
func (s *Slot) Replace(start func(run func()) (cancel func()), fn func()) {
	s.Cancel()
	gen := s.gen
	fired := false
	cancel := start(func() {
		if s.gen != gen {
			return
		}
		fired = true
		s.cancel = nil
		s.gen++
		fn()
	})
	if fired || s.gen != gen {
		return
	}
	s.cancel = cancel
}

// Cancel 取消待执行任务。
func (s *Slot) Cancel() {
	s.gen++
	if s.cancel == nil {
		return
	}
	c := s.cancel
	s.cancel = nil
	c()
}

// Pending 报告是否还有待执行任务。
func (s *Slot) Pending() bool { return s.cancel != nil }

// pass 实现两段式调度：先防抖，再等下一帧执行。
type pass struct {
	sched    Scheduler
	delay    time.Duration
	debounce Slot
	frame    Slot
	run      func()
}

func newPass(sched Scheduler, delay time.Duration, run func()) *pass {
	return &pass{sched: sched, delay: delay, run: run}
}

// schedule 重新开始静默窗口；窗口结束后在下一帧执行 run。
func (p *pass) schedule() {
	if p.sched == nil {
		p.run()
		return
	}
	p.debounce.Replace(func(run func()) func() {
		return p.sched.AfterFunc(p.delay, run)
	}, p.nextFrame)
}

// nextFrame 跳过防抖，直接排到下一帧。
func (p *pass) nextFrame() {
	if p.sched == nil {
		p.run()
		return
	}
	p.frame.Replace(p.sched.RequestFrame, p.run)
}

// afterFrames 连续等待 n 帧之后执行 run。
func (p *pass) afterFrames(n int) {
	if n <= 1 || p.sched == nil {
		p.nextFrame()
		return
	}
	p.frame.Replace(p.sched.RequestFrame, func() { p.afterFrames(n - 1) })
}

func (p *pass) pending() bool { return p.debounce.Pending() || p.frame.Pending() }

func (p *pass) stop() {
	p.debounce.Cancel()
	p.frame.Cancel()
}

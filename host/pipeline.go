package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/reelfit/fit"
)

// DefaultSettleBudget 对应宿主等待延迟令牌的超时时间。
const DefaultSettleBudget = 30 * time.Second

// ErrFrameBlocked 表示事件循环空闲后仍有未释放的延迟令牌。
var ErrFrameBlocked = errors.New("帧仍被延迟令牌阻塞")

var _ fit.Gater = (*Pipeline)(nil)

// Pipeline 记录所有未释放的延迟令牌；只有全部释放后才允许截取帧。
type Pipeline struct {
	next    fit.Handle
	pending map[fit.Handle]string
	logger  *log.Logger

	acquired int
	released int
}

// NewPipeline 创建门控计数器；logger 为 nil 时使用 log.Default()。
func NewPipeline(logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{pending: map[fit.Handle]string{}, logger: logger}
}

// Acquire 发放一个新令牌。
func (p *Pipeline) Acquire(label string) fit.Handle {
	p.next++
	p.pending[p.next] = label
	p.acquired++
	p.logger.Debug("delay", "handle", p.next, "label", label)
	return p.next
}

// Release 释放令牌；未知或已释放的令牌只记录警告。
func (p *Pipeline) Release(h fit.Handle) {
	label, ok := p.pending[h]
	if !ok {
		p.logger.Warn("释放了未知的延迟令牌", "handle", h)
		return
	}
	delete(p.pending, h)
	p.released++
	p.logger.Debug("continue", "handle", h, "label", label)
}

// Ready 报告是否可以截取帧。
func (p *Pipeline) Ready() bool { return len(p.pending) == 0 }

// Pending 按发放顺序返回未释放令牌的标签。
func (p *Pipeline) Pending() []string {
	handles := make([]fit.Handle, 0, len(p.pending))
	for h := range p.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	labels := make([]string, 0, len(handles))
	for _, h := range handles {
		labels = append(labels, p.pending[h])
	}
	return labels
}

// Counts 返回累计发放与释放的令牌数。
func (p *Pipeline) Counts() (acquired, released int) { return p.acquired, p.released }

// Settle 运行事件循环直到空闲，然后确认所有令牌都已释放。
func (p *Pipeline) Settle(ctx context.Context, l *Loop, budget time.Duration) error {
	if budget <= 0 {
		budget = DefaultSettleBudget
	}
	if err := l.RunUntilIdle(ctx, budget); err != nil {
		return fmt.Errorf("等待布局收敛失败: %w", err)
	}
	if !p.Ready() {
		return fmt.Errorf("%w: %s", ErrFrameBlocked, strings.Join(p.Pending(), ", "))
	}
	return nil
}

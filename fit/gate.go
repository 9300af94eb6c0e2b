package fit

// Handle 是宿主渲染器发放的延迟令牌。
type Handle uint64

// Gater 由宿主实现：存在未释放的 Handle 时不得截取帧。
// 实现必须允许以任意顺序释放，并允许在旧令牌未释放时继续发放新令牌。
type Gater interface {
	Acquire(label string) Handle
	Release(h Handle)
}

// Gate 为单个拥有者管理最多一个未释放的令牌。
type Gate struct {
	gater  Gater
	label  string
	handle Handle
	held   bool
}

// NewGate 创建带标签的门控；gater 为 nil 时所有操作都是空操作。
func NewGate(g Gater, label string) *Gate {
	return &Gate{gater: g, label: label}
}

// Start 在没有持有令牌时申请一个。
func (g *Gate) Start() {
	if g == nil || g.gater == nil || g.held {
		return
	}
	g.handle = g.gater.Acquire(g.label)
	g.held = true
}

// Ready 释放当前令牌；未持有时什么也不做。
func (g *Gate) Ready() {
	if g == nil || !g.held {
		return
	}
	h := g.handle
	g.held = false
	g.handle = 0
	g.gater.Release(h)
}

// Close 在拥有者销毁时调用，确保不会留下永久阻塞的帧。
func (g *Gate) Close() { g.Ready() }

// Held 报告是否持有未释放的令牌。
func (g *Gate) Held() bool { return g != nil && g.held }

// Label 返回申请令牌时使用的标签。
func (g *Gate) Label() string { return g.label }

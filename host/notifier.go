package host

// Notifier 保存监听者列表，并通过事件循环异步派发“有变化”的通知。
type Notifier struct {
	post      func(func()) func()
	listeners map[int]func()
	order     []int
	next      int
	queued    bool
}

// NewNotifier 创建通知器；post 通常是 (*Loop).Post，为 nil 时同步派发。
func NewNotifier(post func(func()) func()) *Notifier {
	return &Notifier{post: post, listeners: map[int]func(){}}
}

// Subscribe 注册监听者，返回的 stop 可重复调用。
func (n *Notifier) Subscribe(fn func()) (stop func()) {
	id := n.next
	n.next++
	n.listeners[id] = fn
	n.order = append(n.order, id)
	return func() { delete(n.listeners, id) }
}

// Len 返回仍在订阅的监听者数量。
func (n *Notifier) Len() int { return len(n.listeners) }

// Notify 安排一次派发；派发前的多次通知合并为一次。
func (n *Notifier) Notify() {
	if n.post == nil {
		n.dispatch()
		return
	}
	if n.queued {
		return
	}
	n.queued = true
	n.post(n.dispatch)
}

func (n *Notifier) dispatch() {
	n.queued = false
	ids := append([]int(nil), n.order...)
	live := n.order[:0]
	for _, id := range n.order {
		if _, ok := n.listeners[id]; ok {
			live = append(live, id)
		}
	}
	n.order = live
	for _, id := range ids {
		// 派发过程中被取消的监听者不再收到回调。
		if fn, ok := n.listeners[id]; ok {
			fn()
		}
	}
}

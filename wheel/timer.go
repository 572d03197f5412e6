package wheel

// Callback 定时器到期时执行的函数, cursor 为触发时的槽位指针
type Callback func(cursor int) error

// timer 槽位链表中的定时器节点
type timer struct {
	id       int64    // 调用方提供的定时器 ID
	callback Callback // 到期回调
	owner    *Wheel   // 所属时间轮
	slot     int      // 所在槽位下标, 不在任何槽位时为 -1
	gen      uint64   // 代数, 每次离开槽位后加 1, 使旧的 Handle 失效
	prev     *timer
	next     *timer
}

// linked 是否仍挂在某个槽位上
func (t *timer) linked() bool {
	return t.slot >= 0
}

// retire 标记节点已终结(触发、取消或重置), 旧的 Handle 从此失效
func (t *timer) retire() {
	t.gen++
	t.slot = -1
}

// Handle 定时器句柄, 用于 O(1) 取消
type Handle struct {
	node *timer
	gen  uint64
	id   int64
	slot int
}

// ID 返回调度时传入的定时器 ID
func (h Handle) ID() int64 {
	return h.id
}

// Slot 返回定时器被放入的槽位下标
func (h Handle) Slot() int {
	return h.slot
}

// IsZero 是否为零值句柄
func (h Handle) IsZero() bool {
	return h.node == nil
}

package wheel

// 槽位, 双向链表, 尾部追加, 保证同一槽位内按注册顺序触发
type slot struct {
	head *timer
	tail *timer
	size int
}

// link 将定时器链接到槽位的尾部
func (s *slot) link(t *timer, idx int) {
	t.slot = idx
	t.next = nil
	t.prev = s.tail
	if s.tail != nil {
		s.tail.next = t
	} else {
		s.head = t
	}
	s.tail = t
	s.size++
}

// unlink 从槽位中摘除定时器, 调用方保证 t 在当前槽位中
func (s *slot) unlink(t *timer) {
	if t.prev != nil {
		t.prev.next = t.next
	} else {
		s.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		s.tail = t.prev
	}
	t.prev = nil
	t.next = nil
	s.size--
}

// detach 摘下整条链表并清空槽位, 返回链表头
func (s *slot) detach() *timer {
	head := s.head
	s.head = nil
	s.tail = nil
	s.size = 0
	return head
}

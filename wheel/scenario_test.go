package wheel_test

import (
	"testing"
	"time"

	"github.com/lonng/timewheel/wheel"
	. "github.com/pingcap/check"
	"github.com/pingcap/errors"
)

type scenarioSuite struct {
	w     *wheel.Wheel
	fired map[int64]int // 定时器 ID -> 触发时的 tick 数
	tick  int
}

var _ = Suite(&scenarioSuite{})

func TestScenario(t *testing.T) {
	TestingT(t)
}

func (s *scenarioSuite) SetUpTest(c *C) {
	w, err := wheel.New(100*time.Second, time.Second)
	c.Assert(err, IsNil)
	s.w = w
	s.fired = map[int64]int{}
	s.tick = 0
}

func (s *scenarioSuite) schedule(c *C, delay int, id int64) wheel.Handle {
	h, err := s.w.Schedule(time.Duration(delay)*time.Second, id, func(int) error {
		s.fired[id] = s.tick
		return nil
	})
	c.Assert(err, IsNil)
	return h
}

func (s *scenarioSuite) advance(c *C, until int) {
	for s.tick < until {
		s.tick++
		c.Assert(s.w.Tick(), IsNil)
	}
}

func (s *scenarioSuite) TestFiringSchedule(c *C) {
	for i, delay := range []int{10, 10, 15, 40, 45} {
		s.schedule(c, delay, int64(i+1))
	}
	c.Assert(s.w.Len(), Equals, 5)

	s.advance(c, 9)
	c.Assert(s.fired, HasLen, 0)

	s.advance(c, 10)
	c.Assert(s.fired, DeepEquals, map[int64]int{1: 10, 2: 10})

	s.advance(c, 15)
	c.Assert(s.fired[3], Equals, 15)

	s.advance(c, 40)
	c.Assert(s.fired[4], Equals, 40)

	s.advance(c, 45)
	c.Assert(s.fired[5], Equals, 45)
	c.Assert(s.fired, HasLen, 5)
	c.Assert(s.w.Len(), Equals, 0)
	c.Assert(s.w.Cursor(), Equals, 45)
}

func (s *scenarioSuite) TestCancelBeforeFiring(c *C) {
	var handles []wheel.Handle
	for i, delay := range []int{10, 10, 15, 40, 45} {
		handles = append(handles, s.schedule(c, delay, int64(i+1)))
	}

	s.advance(c, 20)
	c.Assert(s.w.Cancel(handles[3]), IsNil)
	c.Assert(errors.Cause(s.w.Cancel(handles[3])), Equals, wheel.ErrUnknownTimer)

	// 已经触发的定时器不能取消
	c.Assert(errors.Cause(s.w.Cancel(handles[0])), Equals, wheel.ErrUnknownTimer)

	s.advance(c, 200)
	c.Assert(s.fired, DeepEquals, map[int64]int{1: 10, 2: 10, 3: 15, 5: 45})
}

func (s *scenarioSuite) TestFullRevolution(c *C) {
	s.schedule(c, 99, 1)
	s.advance(c, 98)
	c.Assert(s.fired, HasLen, 0)
	s.advance(c, 99)
	c.Assert(s.fired[1], Equals, 99)

	// 恰好一圈之后再注册, 指针回到 99 附近也能正确计算
	s.schedule(c, 1, 2)
	s.advance(c, 100)
	c.Assert(s.fired[2], Equals, 100)
	c.Assert(s.w.Cursor(), Equals, 0)
}

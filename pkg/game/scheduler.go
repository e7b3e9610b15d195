package game

import (
	"math"
	"sort"
)

// TimerID 定时器/观察者句柄
// 0 为无效句柄，Cancel(0) 是安全的空操作
type TimerID uint64

// Phase 每 tick 内观察者的执行阶段
// 同一 tick 内严格按 输入门 → 束缚带形变 → 相机 → 动画 → UI 的顺序执行，
// 保证同一事件的因果在同一帧可见
type Phase int

const (
	PhaseInput Phase = iota
	PhaseRestraint
	PhaseCamera
	PhaseAnimation
	PhaseUI

	phaseCount
)

// String 返回阶段名称（用于日志）
func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhaseRestraint:
		return "restraint"
	case PhaseCamera:
		return "camera"
	case PhaseAnimation:
		return "animation"
	case PhaseUI:
		return "ui"
	default:
		return "unknown"
	}
}

// ObserverFunc 每 tick 调用的观察者，返回 false 时自动注销
type ObserverFunc func(dt float64) bool

const timeEpsilonMs = 1e-6

type scheduledEntry struct {
	id        TimerID
	due       float64 // 毫秒
	interval  float64 // >0 表示周期定时器
	fn        func()
	observer  ObserverFunc
	phase     Phase
	addedTick uint64
}

// Scheduler 单线程协作式调度器
//
// 所有"等待"都表示为：(a) 注册每 tick 观察者，条件满足后注销；
// (b) 延迟 N 毫秒后执行的回调。调度器从不阻塞游戏循环。
//
// 规则：
//   - 每 tick 先执行到期定时器（按到期时间、注册顺序），再按阶段执行观察者
//   - tick 内新注册的定时器/观察者最早在下一 tick 执行
//   - After(0) 在下一 tick 执行
//   - Cancel 幂等，已执行或已取消的句柄返回 false
type Scheduler struct {
	nowMs     float64
	tick      uint64
	nextID    TimerID
	timers    map[TimerID]*scheduledEntry
	observers [phaseCount][]*scheduledEntry
	live      map[TimerID]*scheduledEntry
}

// NewScheduler 创建调度器
func NewScheduler() *Scheduler {
	return &Scheduler{
		nextID: 1,
		timers: make(map[TimerID]*scheduledEntry),
		live:   make(map[TimerID]*scheduledEntry),
	}
}

func (s *Scheduler) allocID() TimerID {
	id := s.nextID
	s.nextID++
	return id
}

// After 在 ms 毫秒后执行一次 fn
func (s *Scheduler) After(ms int, fn func()) TimerID {
	if ms < 0 {
		ms = 0
	}
	e := &scheduledEntry{
		id:        s.allocID(),
		due:       s.nowMs + float64(ms),
		fn:        fn,
		addedTick: s.tick,
	}
	s.timers[e.id] = e
	s.live[e.id] = e
	return e.id
}

// Every 每隔 ms 毫秒执行一次 fn，直到被取消
func (s *Scheduler) Every(ms int, fn func()) TimerID {
	if ms <= 0 {
		ms = 1
	}
	e := &scheduledEntry{
		id:        s.allocID(),
		due:       s.nowMs + float64(ms),
		interval:  float64(ms),
		fn:        fn,
		addedTick: s.tick,
	}
	s.timers[e.id] = e
	s.live[e.id] = e
	return e.id
}

// Observe 在指定阶段注册每 tick 观察者
func (s *Scheduler) Observe(phase Phase, fn ObserverFunc) TimerID {
	if phase < 0 || phase >= phaseCount {
		phase = PhaseUI
	}
	e := &scheduledEntry{
		id:        s.allocID(),
		observer:  fn,
		phase:     phase,
		addedTick: s.tick,
	}
	s.observers[phase] = append(s.observers[phase], e)
	s.live[e.id] = e
	return e.id
}

// Cancel 取消定时器或观察者
// 返回 true 表示句柄此前仍处于活动状态
func (s *Scheduler) Cancel(id TimerID) bool {
	if id == 0 {
		return false
	}
	e, ok := s.live[id]
	if !ok {
		return false
	}
	delete(s.live, id)
	if e.observer == nil {
		delete(s.timers, id)
	}
	return true
}

// Active 检查句柄是否仍处于活动状态
func (s *Scheduler) Active(id TimerID) bool {
	_, ok := s.live[id]
	return ok
}

// Pending 返回活动定时器与观察者的总数
func (s *Scheduler) Pending() int {
	return len(s.live)
}

// Now 返回调度器时钟（毫秒）
func (s *Scheduler) Now() float64 {
	return s.nowMs
}

// TickCount 返回已执行的 tick 数
func (s *Scheduler) TickCount() uint64 {
	return s.tick
}

// Tick 推进时钟 dt 秒，执行到期定时器和所有阶段的观察者
func (s *Scheduler) Tick(dt float64) {
	s.tick++
	s.nowMs += dt * 1000

	s.runTimers()

	for phase := Phase(0); phase < phaseCount; phase++ {
		s.runObservers(phase, dt)
	}
}

func (s *Scheduler) runTimers() {
	due := make([]*scheduledEntry, 0)
	for _, e := range s.timers {
		if e.addedTick < s.tick && e.due <= s.nowMs+timeEpsilonMs {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		return
	}

	sort.Slice(due, func(i, j int) bool {
		if math.Abs(due[i].due-due[j].due) > timeEpsilonMs {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})

	for _, e := range due {
		// 前面的回调可能已取消此定时器
		if _, ok := s.live[e.id]; !ok {
			continue
		}
		if e.interval > 0 {
			e.due += e.interval
		} else {
			delete(s.timers, e.id)
			delete(s.live, e.id)
		}
		e.fn()
	}
}

func (s *Scheduler) runObservers(phase Phase, dt float64) {
	list := s.observers[phase]
	if len(list) == 0 {
		return
	}

	snapshot := make([]*scheduledEntry, len(list))
	copy(snapshot, list)

	for _, e := range snapshot {
		if e.addedTick >= s.tick {
			continue
		}
		if _, ok := s.live[e.id]; !ok {
			continue
		}
		if !e.observer(dt) {
			delete(s.live, e.id)
		}
	}

	// 压缩已注销的观察者（保留本 tick 新注册的）
	kept := s.observers[phase][:0]
	for _, e := range s.observers[phase] {
		if _, ok := s.live[e.id]; ok {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(s.observers[phase]); i++ {
		s.observers[phase][i] = nil
	}
	s.observers[phase] = kept
}

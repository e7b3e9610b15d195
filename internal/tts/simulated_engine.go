// Package tts 提供基于调度器计时的模拟语音引擎
//
// 桌面端没有可用的系统语音合成时使用：按每秒词数估计时长，
// 时间到后回调 OnEnd；同时可把每句台词交给 OnSpeak 钩子（控制台打印、日志）。
package tts

import (
	"errors"
	"log"
	"math"
	"strings"

	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/systems"
)

// ErrNilUtterance 空请求
var ErrNilUtterance = errors.New("tts: nil utterance")

// 时长估计参数
const (
	DefaultWordsPerSecond = 2.5
	minUtteranceMs        = 100
)

// DefaultVoices 模拟引擎提供的声音
func DefaultVoices() []systems.Voice {
	return []systems.Voice{
		{Name: "Narrator (en-US)", Lang: "en-US", Default: true},
		{Name: "Narrator (en-GB)", Lang: "en-GB"},
	}
}

// SimulatedEngine 模拟语音引擎（实现 systems.SpeechEngine）
// 请求按顺序排队，同一时刻只播放一句
type SimulatedEngine struct {
	scheduler      *game.Scheduler
	voices         []systems.Voice
	wordsPerSecond float64

	queue   []*systems.Utterance
	current *systems.Utterance
	timer   game.TimerID
	dueMs   float64

	paused      bool
	remainingMs float64

	// OnSpeak 每句开始播放时调用（可为 nil）
	OnSpeak func(u *systems.Utterance)
}

// NewSimulatedEngine 创建模拟引擎
//
// 参数：
//   - voices: 可用声音，nil 表示没有声音（引擎使用默认声音）
//   - wordsPerSecond: 语速估计，<=0 使用默认值
func NewSimulatedEngine(scheduler *game.Scheduler, voices []systems.Voice, wordsPerSecond float64) *SimulatedEngine {
	if wordsPerSecond <= 0 {
		wordsPerSecond = DefaultWordsPerSecond
	}
	return &SimulatedEngine{
		scheduler:      scheduler,
		voices:         voices,
		wordsPerSecond: wordsPerSecond,
	}
}

// Voices 实现 SpeechEngine
func (e *SimulatedEngine) Voices() []systems.Voice {
	return e.voices
}

// EstimateMs 估计一句话的播放时长
func (e *SimulatedEngine) EstimateMs(u *systems.Utterance) int {
	rate := u.Rate
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(u.Text))
	ms := float64(words) / (e.wordsPerSecond * rate) * 1000
	return int(math.Max(math.Ceil(ms), minUtteranceMs))
}

// Speak 实现 SpeechEngine：加入队列，空闲时立即开始
func (e *SimulatedEngine) Speak(u *systems.Utterance) error {
	if u == nil {
		return ErrNilUtterance
	}
	e.queue = append(e.queue, u)
	if e.current == nil {
		e.startNext()
	}
	return nil
}

func (e *SimulatedEngine) startNext() {
	if len(e.queue) == 0 {
		return
	}
	u := e.queue[0]
	e.queue = e.queue[1:]
	e.current = u
	e.paused = false

	if e.OnSpeak != nil {
		e.OnSpeak(u)
	}
	e.schedule(float64(e.EstimateMs(u)))
}

func (e *SimulatedEngine) schedule(ms float64) {
	e.dueMs = e.scheduler.Now() + ms
	e.timer = e.scheduler.After(int(math.Ceil(ms)), e.finishCurrent)
}

func (e *SimulatedEngine) finishCurrent() {
	u := e.current
	e.current = nil
	e.timer = 0
	if u != nil && u.OnEnd != nil {
		u.OnEnd()
	}
	if e.current == nil {
		e.startNext()
	}
}

// Cancel 实现 SpeechEngine：取消当前语句并清空队列
// 每个被取消的请求以 ErrSpeechCanceled 回调 OnError
func (e *SimulatedEngine) Cancel() {
	e.scheduler.Cancel(e.timer)
	e.timer = 0
	e.paused = false

	canceled := make([]*systems.Utterance, 0, len(e.queue)+1)
	if e.current != nil {
		canceled = append(canceled, e.current)
	}
	canceled = append(canceled, e.queue...)
	e.current = nil
	e.queue = nil

	for _, u := range canceled {
		if u.OnError != nil {
			u.OnError(systems.ErrSpeechCanceled)
		}
	}
	if len(canceled) > 0 {
		log.Printf("[tts] Canceled %d utterance(s)", len(canceled))
	}
}

// Pause 实现 SpeechEngine
func (e *SimulatedEngine) Pause() {
	if e.current == nil || e.paused {
		return
	}
	e.paused = true
	e.remainingMs = math.Max(e.dueMs-e.scheduler.Now(), 0)
	e.scheduler.Cancel(e.timer)
	e.timer = 0
}

// Resume 实现 SpeechEngine
func (e *SimulatedEngine) Resume() {
	if e.current == nil || !e.paused {
		return
	}
	e.paused = false
	e.schedule(e.remainingMs)
}

// Speaking 是否正在播放
func (e *SimulatedEngine) Speaking() bool {
	return e.current != nil
}

// QueueLen 排队中的语句数（不含当前）
func (e *SimulatedEngine) QueueLen() int {
	return len(e.queue)
}

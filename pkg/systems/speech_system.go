package systems

import (
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/sony/gobreaker"
)

// speechRequest 一次 Speak 调用的状态
type speechRequest struct {
	text       string
	onComplete func()
	done       bool
	timers     []game.TimerID
}

// SpeechSystem 旁白协调器（实现 Narrator）
//
// 同一时刻只有一句旁白：新的 Speak 会先取消正在进行的那句。
// 每句先播放一个几乎无声的预热语句，预热结束（或超时回退）并稳定后再播放正文。
// 无论语音引擎成功、失败还是被取消，每次 Speak 的 onComplete 恰好调用一次。
type SpeechSystem struct {
	scheduler *game.Scheduler
	engine    SpeechEngine
	settings  *game.SettingsManager
	speech    config.SpeechConfig
	timing    config.TimingConfig
	breaker   *gobreaker.CircuitBreaker

	current *speechRequest
}

// NewSpeechSystem 创建旁白协调器
//
// 参数：
//   - engine: 语音引擎，可为 nil（所有台词静默完成）
//   - settings: 旁白设置，可为 nil（使用默认设置）
func NewSpeechSystem(scheduler *game.Scheduler, engine SpeechEngine, settings *game.SettingsManager,
	speech config.SpeechConfig, timing config.TimingConfig) *SpeechSystem {
	if settings == nil {
		settings, _ = game.NewSettingsManager(nil)
	}
	maxFailures := speech.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}

	ss := &SpeechSystem{
		scheduler: scheduler,
		engine:    engine,
		settings:  settings,
		speech:    speech,
		timing:    timing,
	}
	ss.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "speech",
		MaxRequests: 1,
		Timeout:     time.Duration(speech.BreakerOpenMs) * time.Millisecond,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[SpeechSystem] Breaker %s: %s -> %s", name, from, to)
		},
	})
	return ss
}

// Speaking 是否有未完成的旁白
func (ss *SpeechSystem) Speaking() bool {
	return ss.current != nil && !ss.current.done
}

// Speak 播放一句旁白，结束（或失败/取消）时调用 onComplete
func (ss *SpeechSystem) Speak(text string, onComplete func()) {
	ss.Cancel()

	req := &speechRequest{text: text, onComplete: onComplete}
	ss.current = req

	settings := ss.settings.GetSettings()
	if !settings.NarrationEnabled || ss.engine == nil || strings.TrimSpace(text) == "" {
		ss.track(req, ss.scheduler.After(0, func() { ss.finish(req) }))
		return
	}
	if ss.breaker.State() == gobreaker.StateOpen {
		log.Printf("[SpeechSystem] Engine breaker open, skipping narration: %q", text)
		ss.track(req, ss.scheduler.After(0, func() { ss.finish(req) }))
		return
	}

	ss.warmUp(req)
}

// Cancel 取消当前旁白（其 onComplete 仍会被调用一次）
func (ss *SpeechSystem) Cancel() {
	req := ss.current
	if req == nil || req.done {
		return
	}
	// 先结束请求，引擎随后的 OnError 回调会被忽略
	ss.finish(req)
	if ss.engine != nil {
		ss.engine.Cancel()
	}
}

func (ss *SpeechSystem) track(req *speechRequest, id game.TimerID) {
	req.timers = append(req.timers, id)
}

// finish 结束请求：取消它的所有定时器，调用一次 onComplete
func (ss *SpeechSystem) finish(req *speechRequest) {
	if req.done {
		return
	}
	req.done = true
	for _, id := range req.timers {
		ss.scheduler.Cancel(id)
	}
	req.timers = nil
	if ss.current == req {
		ss.current = nil
	}
	if req.onComplete != nil {
		req.onComplete()
	}
}

// warmUp 播放预热语句，结束或超时后稳定一段时间再播放正文
func (ss *SpeechSystem) warmUp(req *speechRequest) {
	warmed := false
	proceed := func() {
		if warmed || req.done {
			return
		}
		warmed = true
		ss.track(req, ss.scheduler.After(ss.timing.SettleDelayMs, func() { ss.speakMain(req) }))
	}

	ss.track(req, ss.scheduler.After(ss.timing.WarmUpFallbackMs, proceed))

	warm := &Utterance{
		Text:   ss.speech.WarmUpText,
		Voice:  ss.selectVoice(),
		Rate:   1,
		Pitch:  1,
		Volume: ss.speech.WarmUpVolume,
		OnEnd:  proceed,
		OnError: func(err error) {
			if !errors.Is(err, ErrSpeechCanceled) {
				log.Printf("[SpeechSystem] Warm-up failed: %v", err)
			}
			proceed()
		},
	}
	if err := ss.startUtterance(warm); err != nil {
		log.Printf("[SpeechSystem] Warm-up could not start: %v", err)
		ss.finish(req)
	}
}

// speakMain 播放正文，带定期防截断和安全超时
func (ss *SpeechSystem) speakMain(req *speechRequest) {
	if req.done {
		return
	}

	settings := ss.settings.GetSettings()
	rate, pitch := ModulateVoice(req.text, settings.SpeechRate, settings.SpeechPitch)

	u := &Utterance{
		Text:   req.text,
		Voice:  ss.selectVoice(),
		Rate:   rate,
		Pitch:  pitch,
		Volume: settings.SpeechVolume,
		OnEnd:  func() { ss.finish(req) },
		OnError: func(err error) {
			if !errors.Is(err, ErrSpeechCanceled) {
				log.Printf("[SpeechSystem] Narration failed: %v", err)
			}
			ss.finish(req)
		},
	}
	if err := ss.startUtterance(u); err != nil {
		log.Printf("[SpeechSystem] Narration could not start: %v", err)
		ss.finish(req)
		return
	}
	if req.done {
		// 引擎同步回调了结束
		return
	}

	if ss.timing.NudgeIntervalMs > 0 {
		ss.track(req, ss.scheduler.Every(ss.timing.NudgeIntervalMs, func() {
			ss.engine.Pause()
			ss.engine.Resume()
		}))
	}

	safety := ss.SafetyTimeoutMs(req.text, rate)
	ss.track(req, ss.scheduler.After(safety, func() {
		log.Printf("[SpeechSystem] Narration timed out after %dms: %q", safety, req.text)
		if ss.engine != nil {
			ss.engine.Cancel()
		}
		ss.finish(req)
	}))
}

// startUtterance 通过熔断器启动语音
func (ss *SpeechSystem) startUtterance(u *Utterance) error {
	_, err := ss.breaker.Execute(func() (interface{}, error) {
		return nil, ss.engine.Speak(u)
	})
	return err
}

// SafetyTimeoutMs 正文的最长等待时间：估计时长 × 倍数 + 宽限
func (ss *SpeechSystem) SafetyTimeoutMs(text string, rate float64) int {
	wps := ss.speech.WordsPerSecond
	if wps <= 0 {
		wps = 2.5
	}
	if rate <= 0 {
		rate = 1
	}
	words := len(strings.Fields(text))
	estimated := float64(words) / (wps * rate) * 1000
	mult := ss.speech.SafetyMultiplier
	if mult <= 0 {
		mult = 3
	}
	return int(math.Ceil(estimated*mult)) + ss.speech.SafetyExtraMs
}

// selectVoice 选择旁白声音
// 优先设置中的声音名，其次首选语言的第一个声音，否则使用引擎默认声音
func (ss *SpeechSystem) selectVoice() *Voice {
	voices := ss.engine.Voices()
	if len(voices) == 0 {
		return nil
	}
	if name := ss.settings.GetSettings().VoiceName; name != "" {
		for i := range voices {
			if voices[i].Name == name {
				return &voices[i]
			}
		}
	}
	lang := strings.ToLower(ss.speech.PreferredLang)
	if lang == "" {
		lang = "en"
	}
	for i := range voices {
		if strings.HasPrefix(strings.ToLower(voices[i].Lang), lang) {
			return &voices[i]
		}
	}
	return nil
}

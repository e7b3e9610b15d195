package tts

import (
	"errors"
	"testing"

	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/systems"
)

func tickN(s *game.Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.Tick(1.0 / 60.0)
	}
}

func TestEstimateMs(t *testing.T) {
	e := NewSimulatedEngine(game.NewScheduler(), nil, 0)
	tests := []struct {
		name string
		text string
		rate float64
		want int
	}{
		{"五个词", "one two three four five", 1, 2000},
		{"语速加倍", "one two three four five", 2, 1000},
		{"单个标点按一个词", ".", 1, 400},
		{"只有空白取最短时长", " \t ", 1, minUtteranceMs},
		{"空文本", "", 1, minUtteranceMs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.EstimateMs(&systems.Utterance{Text: tt.text, Rate: tt.rate})
			if got != tt.want {
				t.Errorf("EstimateMs = %d, 期望 %d", got, tt.want)
			}
		})
	}
}

func TestSimulatedEngineQueue(t *testing.T) {
	s := game.NewScheduler()
	e := NewSimulatedEngine(s, DefaultVoices(), 2.5)

	var order []string
	var started []string
	e.OnSpeak = func(u *systems.Utterance) { started = append(started, u.Text) }
	speak := func(text string) {
		_ = e.Speak(&systems.Utterance{Text: text, Rate: 1, OnEnd: func() { order = append(order, text) }})
	}
	speak("one two three four five")
	speak("six")

	if len(started) != 1 || e.QueueLen() != 1 {
		t.Fatalf("第二句应排队, started=%v queue=%d", started, e.QueueLen())
	}

	tickN(s, 120)
	if len(order) != 1 || order[0] != "one two three four five" {
		t.Fatalf("2 秒后第一句应结束, got %v", order)
	}
	tickN(s, 30)
	if len(order) != 2 {
		t.Errorf("第二句应结束, got %v", order)
	}
	if e.Speaking() {
		t.Error("队列清空后不应在播放")
	}
}

func TestSimulatedEngineCancel(t *testing.T) {
	s := game.NewScheduler()
	e := NewSimulatedEngine(s, nil, 2.5)

	var errs []error
	ended := 0
	for i := 0; i < 3; i++ {
		_ = e.Speak(&systems.Utterance{
			Text:    "a b c",
			OnEnd:   func() { ended++ },
			OnError: func(err error) { errs = append(errs, err) },
		})
	}
	e.Cancel()
	tickN(s, 300)

	if len(errs) != 3 {
		t.Fatalf("取消应回调 3 次 OnError, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, systems.ErrSpeechCanceled) {
			t.Errorf("错误 = %v, 期望 ErrSpeechCanceled", err)
		}
	}
	if ended != 0 {
		t.Errorf("取消后 OnEnd 调用 %d 次, 期望 0", ended)
	}
}

func TestSimulatedEnginePauseResume(t *testing.T) {
	s := game.NewScheduler()
	e := NewSimulatedEngine(s, nil, 2.5)
	ended := false
	_ = e.Speak(&systems.Utterance{Text: "one two three four five", Rate: 1, OnEnd: func() { ended = true }})

	tickN(s, 60)
	e.Pause()
	tickN(s, 120)
	if ended {
		t.Fatal("暂停期间不应结束")
	}
	e.Resume()
	tickN(s, 59)
	if ended {
		t.Error("恢复后应还剩约 1 秒")
	}
	tickN(s, 3)
	if !ended {
		t.Error("恢复后剩余时间结束应回调 OnEnd")
	}
}

func TestSimulatedEngineNilUtterance(t *testing.T) {
	e := NewSimulatedEngine(game.NewScheduler(), nil, 0)
	if err := e.Speak(nil); !errors.Is(err, ErrNilUtterance) {
		t.Errorf("Speak(nil) = %v, 期望 ErrNilUtterance", err)
	}
}

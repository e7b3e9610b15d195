package systems

import (
	"errors"

	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// fakeEngine 手动控制的语音引擎
type fakeEngine struct {
	voices   []Voice
	spoken   []*Utterance
	active   []*Utterance
	failNext int
	canceled int
	paused   int
	resumed  int
}

func (e *fakeEngine) Voices() []Voice { return e.voices }

func (e *fakeEngine) Speak(u *Utterance) error {
	if e.failNext > 0 {
		e.failNext--
		return errors.New("engine unavailable")
	}
	e.spoken = append(e.spoken, u)
	e.active = append(e.active, u)
	return nil
}

func (e *fakeEngine) Cancel() {
	e.canceled++
	active := e.active
	e.active = nil
	for _, u := range active {
		if u.OnError != nil {
			u.OnError(ErrSpeechCanceled)
		}
	}
}

func (e *fakeEngine) Pause()  { e.paused++ }
func (e *fakeEngine) Resume() { e.resumed++ }

// endAll 让所有进行中的语句正常结束
func (e *fakeEngine) endAll() {
	active := e.active
	e.active = nil
	for _, u := range active {
		if u.OnEnd != nil {
			u.OnEnd()
		}
	}
}

// failAll 让所有进行中的语句报错
func (e *fakeEngine) failAll() {
	active := e.active
	e.active = nil
	for _, u := range active {
		if u.OnError != nil {
			u.OnError(errors.New("synthesis failed"))
		}
	}
}

// fakeNarrator 立即或手动完成的旁白
type fakeNarrator struct {
	lines    []string
	pending  []func()
	canceled int
	auto     bool
}

func (n *fakeNarrator) Speak(text string, onComplete func()) {
	n.lines = append(n.lines, text)
	if n.auto {
		onComplete()
		return
	}
	n.pending = append(n.pending, onComplete)
}

func (n *fakeNarrator) Cancel() {
	n.canceled++
	pending := n.pending
	n.pending = nil
	for _, fn := range pending {
		fn()
	}
}

// completeAll 完成所有等待中的台词
func (n *fakeNarrator) completeAll() {
	pending := n.pending
	n.pending = nil
	for _, fn := range pending {
		fn()
	}
}

// fakeOverlay 记录叠加层状态
type fakeOverlay struct {
	subtitle      string
	subtitleShown bool
	promptShown   bool
	progress      float64
	objective     string
	messages      []string
}

func (o *fakeOverlay) ShowSubtitle(text string) { o.subtitle, o.subtitleShown = text, true }
func (o *fakeOverlay) HideSubtitle()            { o.subtitle, o.subtitleShown = "", false }
func (o *fakeOverlay) ShowBreakFreePrompt()     { o.promptShown = true }
func (o *fakeOverlay) SetBreakFreeProgress(p float64) {
	o.progress = p
}
func (o *fakeOverlay) HideBreakFreePrompt()     { o.promptShown = false }
func (o *fakeOverlay) SetObjective(text string) { o.objective = text }
func (o *fakeOverlay) ShowMessage(text string)  { o.messages = append(o.messages, text) }

// fakePointer 记录指针捕获状态
type fakePointer struct {
	captured bool
}

func (p *fakePointer) Capture() { p.captured = true }
func (p *fakePointer) Release() { p.captured = false }

// fakeAnimator 记录播放过的动画
type fakeAnimator struct {
	played []string
}

func (a *fakeAnimator) Play(name string, loop bool, speed float64) {
	a.played = append(a.played, name)
}

// fakeSkeleton 静态骨骼
type fakeSkeleton struct {
	bones []Bone
}

func (s *fakeSkeleton) Bone(name string) (Bone, bool) {
	for _, b := range s.bones {
		if b.Name == name {
			return b, true
		}
	}
	return Bone{}, false
}

func (s *fakeSkeleton) Bones() []Bone { return s.bones }

func (s *fakeSkeleton) move(name string, pos utils.Vec3) {
	for i := range s.bones {
		if s.bones[i].Name == name {
			s.bones[i].Position = pos
		}
	}
}

// fakeInput 可设置的输入
type fakeInput struct {
	held    map[types.InputAction]bool
	pressed map[types.InputAction]bool
	dYaw    float64
	dPitch  float64
}

func newFakeInput() *fakeInput {
	return &fakeInput{
		held:    make(map[types.InputAction]bool),
		pressed: make(map[types.InputAction]bool),
	}
}

func (in *fakeInput) IsHeld(a types.InputAction) bool      { return in.held[a] }
func (in *fakeInput) JustPressed(a types.InputAction) bool { return in.pressed[a] }
func (in *fakeInput) LookDelta() (float64, float64)        { return in.dYaw, in.dPitch }

package systems

import (
	"errors"

	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// 外部协作方能力接口
//
// 开场核心只依赖这些接口：语音合成、叠加层 UI、指针捕获、骨骼动画、
// 骨骼查询、道具生成和输入。具体实现在 internal/tts、pkg/scenes 和 pkg/app。

// ErrSpeechCanceled 语音被取消（引擎在 Cancel 时以此错误回调 OnError）
var ErrSpeechCanceled = errors.New("speech canceled")

// Voice 可用的旁白声音
type Voice struct {
	Name    string
	Lang    string // BCP-47 风格，如 "en-US"
	Default bool
}

// Utterance 一次语音请求
// 引擎对每个成功开始的请求恰好回调 OnEnd 或 OnError 之一
type Utterance struct {
	Text   string
	Voice  *Voice // nil 表示引擎默认声音
	Rate   float64
	Pitch  float64
	Volume float64

	OnEnd   func()
	OnError func(err error)
}

// SpeechEngine 语音合成引擎
type SpeechEngine interface {
	// Voices 枚举可用声音（可能为空）
	Voices() []Voice
	// Speak 开始（或排队）一次语音，返回错误表示无法开始
	Speak(u *Utterance) error
	// Cancel 取消当前语音并清空队列
	Cancel()
	// Pause / Resume 暂停与恢复当前语音
	Pause()
	Resume()
}

// Narrator 开场控制器使用的旁白接口
// onComplete 对每次 Speak 恰好调用一次
type Narrator interface {
	Speak(text string, onComplete func())
	Cancel()
}

// Overlay 叠加层 UI（字幕、挣脱提示、目标、提示消息）
type Overlay interface {
	ShowSubtitle(text string)
	HideSubtitle()
	ShowBreakFreePrompt()
	SetBreakFreeProgress(progress float64)
	HideBreakFreePrompt()
	SetObjective(text string)
	ShowMessage(text string)
}

// PointerLock 指针捕获
type PointerLock interface {
	Capture()
	Release()
}

// Animator 按规范化名称播放骨骼动画
type Animator interface {
	Play(name string, loop bool, speed float64)
}

// Bone 骨骼（世界坐标）
type Bone struct {
	Name     string
	Position utils.Vec3
}

// Skeleton 骨骼查询
type Skeleton interface {
	// Bone 按名称查找骨骼
	Bone(name string) (Bone, bool)
	// Bones 列出所有骨骼（名称查找失败时按距离回退）
	Bones() []Bone
}

// PropSpawner 生成可视道具（模型）
type PropSpawner interface {
	SpawnProp(modelPath string, position utils.Vec3) (handle string, err error)
}

// InputSource 逻辑输入
type InputSource interface {
	IsHeld(action types.InputAction) bool
	JustPressed(action types.InputAction) bool
	// LookDelta 本 tick 的视角变化（弧度）
	LookDelta() (dYaw, dPitch float64)
}

// Trackable 可被相机跟踪的目标
type Trackable interface {
	TrackPosition() utils.Vec3
}

// TrackFunc 函数适配 Trackable
type TrackFunc func() utils.Vec3

// TrackPosition 实现 Trackable
func (f TrackFunc) TrackPosition() utils.Vec3 {
	return f()
}

// FixedTarget 固定位置目标
type FixedTarget utils.Vec3

// TrackPosition 实现 Trackable
func (f FixedTarget) TrackPosition() utils.Vec3 {
	return utils.Vec3(f)
}

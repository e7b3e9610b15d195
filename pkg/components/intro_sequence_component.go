package components

import "github.com/gonewx/cellbreak/pkg/types"

// IntroState 开场状态机状态
type IntroState int

const (
	// IntroIdle 待机（尚未开始或已被重新束缚）
	IntroIdle IntroState = iota
	// IntroPlaying 播放中，当前步骤为 StepIndex
	IntroPlaying
	// IntroSkipped 已跳过（终态，不再自动推进）
	IntroSkipped
	// IntroCompleted 已完成，控制已交还（终态）
	IntroCompleted
)

// String 返回状态名
func (s IntroState) String() string {
	switch s {
	case IntroPlaying:
		return "playing"
	case IntroSkipped:
		return "skipped"
	case IntroCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// IntroSequenceComponent 开场序列游标
type IntroSequenceComponent struct {
	// State 当前状态
	State IntroState

	// StepIndex 当前步骤
	StepIndex int

	// Skipped 一旦为 true 不再自动推进，只允许 enable-controls 收尾
	Skipped bool

	// CameraMode 最近一次切换的相机模式
	CameraMode types.CameraMode

	// Generation 每次 start/skip/restrain 递增，延迟回调据此判断是否过期
	Generation int

	// PostBreakLine 挣脱后台词链的进度（-1 表示未开始）
	PostBreakLine int
}

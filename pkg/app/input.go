package app

import (
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// mouseSensitivity 每像素对应的视角变化（弧度）
const mouseSensitivity = 0.0025

// KeyBindings 逻辑动作到按键的映射
var KeyBindings = map[types.InputAction][]ebiten.Key{
	types.InputBreakFree:    {ebiten.KeySpace},
	types.InputMoveForward:  {ebiten.KeyW, ebiten.KeyArrowUp},
	types.InputMoveBackward: {ebiten.KeyS, ebiten.KeyArrowDown},
	types.InputStrafeLeft:   {ebiten.KeyA, ebiten.KeyArrowLeft},
	types.InputStrafeRight:  {ebiten.KeyD, ebiten.KeyArrowRight},
	types.InputInteract:     {ebiten.KeyE},
}

// EbitenInput 键盘鼠标输入（实现 systems.InputSource）
type EbitenInput struct {
	lastX, lastY int
	hasLast      bool
	dYaw, dPitch float64
}

// NewEbitenInput 创建输入源
func NewEbitenInput() *EbitenInput {
	return &EbitenInput{}
}

// Sample 每 tick 采样一次鼠标位移
// 仅在指针被捕获时转换为视角变化
func (in *EbitenInput) Sample() {
	x, y := ebiten.CursorPosition()
	in.dYaw, in.dPitch = 0, 0
	if in.hasLast && ebiten.CursorMode() == ebiten.CursorModeCaptured {
		in.dYaw = float64(x-in.lastX) * mouseSensitivity
		in.dPitch = -float64(y-in.lastY) * mouseSensitivity
	}
	in.lastX, in.lastY = x, y
	in.hasLast = true
}

// IsHeld 实现 systems.InputSource
// 触摸屏按住等同于挣脱键
func (in *EbitenInput) IsHeld(action types.InputAction) bool {
	if action == types.InputBreakFree && len(ebiten.AppendTouchIDs(nil)) > 0 {
		return true
	}
	for _, k := range KeyBindings[action] {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

// JustPressed 实现 systems.InputSource
func (in *EbitenInput) JustPressed(action types.InputAction) bool {
	for _, k := range KeyBindings[action] {
		if inpututil.IsKeyJustPressed(k) {
			return true
		}
	}
	return false
}

// LookDelta 实现 systems.InputSource
func (in *EbitenInput) LookDelta() (float64, float64) {
	return in.dYaw, in.dPitch
}

// EbitenPointerLock 通过光标模式实现指针捕获
type EbitenPointerLock struct{}

// Capture 隐藏并锁定光标
func (EbitenPointerLock) Capture() {
	ebiten.SetCursorMode(ebiten.CursorModeCaptured)
}

// Release 恢复可见光标
func (EbitenPointerLock) Release() {
	ebiten.SetCursorMode(ebiten.CursorModeVisible)
}

package scenes

import (
	"github.com/gonewx/cellbreak/pkg/types"
)

// ManualInput 由代码驱动的输入源（无头运行和测试）
type ManualInput struct {
	held    map[types.InputAction]bool
	pressed map[types.InputAction]bool
	dYaw    float64
	dPitch  float64
}

// NewManualInput 创建空输入
func NewManualInput() *ManualInput {
	return &ManualInput{
		held:    make(map[types.InputAction]bool),
		pressed: make(map[types.InputAction]bool),
	}
}

// SetHeld 设置按住状态
func (in *ManualInput) SetHeld(action types.InputAction, held bool) {
	in.held[action] = held
}

// Press 触发一次按下（在下一次 EndTick 后清除）
func (in *ManualInput) Press(action types.InputAction) {
	in.pressed[action] = true
}

// Look 累加视角变化
func (in *ManualInput) Look(dYaw, dPitch float64) {
	in.dYaw += dYaw
	in.dPitch += dPitch
}

// EndTick 清除单 tick 输入
func (in *ManualInput) EndTick() {
	clear(in.pressed)
	in.dYaw, in.dPitch = 0, 0
}

// IsHeld 实现 systems.InputSource
func (in *ManualInput) IsHeld(action types.InputAction) bool {
	return in.held[action]
}

// JustPressed 实现 systems.InputSource
func (in *ManualInput) JustPressed(action types.InputAction) bool {
	return in.pressed[action]
}

// LookDelta 实现 systems.InputSource
func (in *ManualInput) LookDelta() (float64, float64) {
	return in.dYaw, in.dPitch
}

package components

import (
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// CameraComponent 管理相机的位置、朝向和关键帧动画状态。
type CameraComponent struct {
	// Mode 当前相机模式（天花板 / 第一人称 / 第三人称）
	Mode types.CameraMode

	// Position 相机基础位置（世界坐标，不含抖动）
	Position utils.Vec3

	// Target 注视点（世界坐标）
	Target utils.Vec3

	// Yaw / Pitch 由注视点推导的朝向（弧度）
	Yaw   float64
	Pitch float64

	// Keyframes 位置关键帧，第一个关键帧为动画开始时的位置
	Keyframes []utils.Vec3

	// ElapsedTicks / DurationTicks 关键帧动画进度
	ElapsedTicks  int
	DurationTicks int

	// IsAnimating 是否正在执行关键帧动画
	IsAnimating bool

	// ShakeAmplitude 抖动幅度（世界单位），0 表示不抖动
	ShakeAmplitude float64

	// ShakeOffset 当前帧抖动偏移
	ShakeOffset utils.Vec3

	// ShakeTime 抖动累计时间（秒）
	ShakeTime float64
}

// EffectivePosition 返回含抖动的渲染位置
func (c *CameraComponent) EffectivePosition() utils.Vec3 {
	return c.Position.Add(c.ShakeOffset)
}

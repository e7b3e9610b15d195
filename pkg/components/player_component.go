package components

import "github.com/gonewx/cellbreak/pkg/utils"

// AnimationStateComponent 角色骨骼动画状态
// Requested 非空表示有待转发给动画器的请求
type AnimationStateComponent struct {
	Current   string
	Requested string
	Loop      bool
	Speed     float64
}

// SitUpMotion 坐起组合动作（躺 → 坐 → 站）
type SitUpMotion struct {
	Active   bool
	Elapsed  float64 // 秒
	Duration float64 // 秒

	FromPosition utils.Vec3
	FromRotation utils.Vec3
	ToPosition   utils.Vec3
	ToRotation   utils.Vec3
}

// PlayerBodyComponent 玩家身体的程序化动画
type PlayerBodyComponent struct {
	// SitUp 坐起动作
	SitUp SitUpMotion

	// BodyShaking 身体挣扎抖动（仅在未被束缚时）
	BodyShaking bool
	ShakeTime   float64

	// ShakeOffset 抖动带来的网格旋转偏移（仅视觉，不修改碰撞体）
	ShakeOffset utils.Vec3
}

package components

// BreakFreeGateComponent 挣脱输入门
type BreakFreeGateComponent struct {
	// Progress 进度 [0,100]
	Progress float64

	// IsHeld 本 tick 按键是否按住
	IsHeld bool

	// Active 正在接收输入
	Active bool

	// Completed 已触发完成（只触发一次）
	Completed bool
}

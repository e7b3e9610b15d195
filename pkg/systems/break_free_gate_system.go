package systems

import (
	"log"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

const (
	gateMaxProgress = 100.0
	gateEpsilon     = 1e-6
)

// BreakFreeGateSystem 挣脱输入门
//
// 激活后每 tick 读取"挣脱"键：按住时进度上升，松开时衰减。
// 进度同时驱动相机抖动、束缚带 strain 和提示进度条；
// 到达 100 时恰好触发一次完成回调并注销自己的观察者。
type BreakFreeGateSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *game.Scheduler
	gateEntity    ecs.EntityID
	cfg           config.GateConfig

	input     InputSource
	camera    *CameraSystem
	restraint *RestraintSystem
	overlay   Overlay

	observerID game.TimerID
	onComplete func()
}

// NewBreakFreeGateSystem 创建挣脱输入门
func NewBreakFreeGateSystem(em *ecs.EntityManager, scheduler *game.Scheduler, gateEntity ecs.EntityID,
	cfg config.GateConfig, input InputSource, camera *CameraSystem, restraint *RestraintSystem, overlay Overlay) *BreakFreeGateSystem {
	return &BreakFreeGateSystem{
		entityManager: em,
		scheduler:     scheduler,
		gateEntity:    gateEntity,
		cfg:           cfg,
		input:         input,
		camera:        camera,
		restraint:     restraint,
		overlay:       overlay,
	}
}

// Gate 返回输入门组件
func (gs *BreakFreeGateSystem) Gate() *components.BreakFreeGateComponent {
	gate, _ := ecs.GetComponent[*components.BreakFreeGateComponent](gs.entityManager, gs.gateEntity)
	return gate
}

// Activate 激活输入门，完成时调用 onComplete
// 已激活或已完成时返回 false
func (gs *BreakFreeGateSystem) Activate(onComplete func()) bool {
	gate := gs.Gate()
	if gate == nil || gate.Active || gate.Completed {
		return false
	}
	gate.Active = true
	gate.Progress = 0
	gate.IsHeld = false
	gs.onComplete = onComplete

	if gs.overlay != nil {
		gs.overlay.ShowBreakFreePrompt()
		gs.overlay.SetBreakFreeProgress(0)
	}

	gs.observerID = gs.scheduler.Observe(game.PhaseInput, func(dt float64) bool {
		held := gs.input != nil && gs.input.IsHeld(types.InputBreakFree)
		gs.Update(held)
		return gs.Gate() != nil && gs.Gate().Active
	})
	log.Printf("[BreakFreeGateSystem] Activated")
	return true
}

// Update 处理一次按键状态（每 tick 调用一次）
func (gs *BreakFreeGateSystem) Update(held bool) {
	gate := gs.Gate()
	if gate == nil || !gate.Active || gate.Completed {
		return
	}

	gate.IsHeld = held
	if held {
		gate.Progress += gs.cfg.FillPerTick
	} else {
		gate.Progress -= gs.cfg.DrainPerTick
	}
	gate.Progress = utils.Clamp(gate.Progress, 0, gateMaxProgress)

	if gs.camera != nil {
		if held {
			gs.camera.SetShake(gs.cfg.MaxShake * gate.Progress / gateMaxProgress)
		} else {
			gs.camera.SetShake(0)
		}
	}
	if gs.restraint != nil {
		gs.restraint.SetStrainAll(gate.Progress / gateMaxProgress)
	}
	if gs.overlay != nil {
		gs.overlay.SetBreakFreeProgress(gate.Progress)
	}

	if gate.Progress >= gateMaxProgress-gateEpsilon {
		gs.complete(gate)
	}
}

func (gs *BreakFreeGateSystem) complete(gate *components.BreakFreeGateComponent) {
	gate.Progress = gateMaxProgress
	gate.Completed = true
	gate.Active = false
	gate.IsHeld = false
	gs.scheduler.Cancel(gs.observerID)
	gs.observerID = 0

	if gs.camera != nil {
		gs.camera.SetShake(0)
	}
	if gs.overlay != nil {
		gs.overlay.HideBreakFreePrompt()
	}

	log.Printf("[BreakFreeGateSystem] Completed")
	cb := gs.onComplete
	gs.onComplete = nil
	if cb != nil {
		cb()
	}
}

// Deactivate 停用输入门（不触发完成回调）
func (gs *BreakFreeGateSystem) Deactivate() {
	gs.scheduler.Cancel(gs.observerID)
	gs.observerID = 0
	gs.onComplete = nil

	gate := gs.Gate()
	if gate == nil {
		return
	}
	wasActive := gate.Active
	gate.Active = false
	gate.IsHeld = false
	if wasActive {
		if gs.camera != nil {
			gs.camera.SetShake(0)
		}
		if gs.overlay != nil {
			gs.overlay.HideBreakFreePrompt()
		}
	}
}

// Reset 停用并清零，允许再次激活
func (gs *BreakFreeGateSystem) Reset() {
	gs.Deactivate()
	if gate := gs.Gate(); gate != nil {
		gate.Progress = 0
		gate.Completed = false
	}
}

// IsActive 输入门是否激活
func (gs *BreakFreeGateSystem) IsActive() bool {
	gate := gs.Gate()
	return gate != nil && gate.Active
}

// Progress 当前进度 [0,100]
func (gs *BreakFreeGateSystem) Progress() float64 {
	if gate := gs.Gate(); gate != nil {
		return gate.Progress
	}
	return 0
}

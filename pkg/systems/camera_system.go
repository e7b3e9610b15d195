package systems

import (
	"log"
	"math"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// TicksPerSecond 固定逻辑帧率
const TicksPerSecond = 60

// TicksToMs 将 tick 数换算为毫秒
func TicksToMs(ticks int) int {
	return int(math.Round(float64(ticks) * 1000 / TicksPerSecond))
}

// CameraSystem 相机过渡导演
//
// 负责关键帧位置动画（缓入缓出）、注视点跟踪观察者和抖动。
// 同一时刻只有一个过渡：新的 AnimateTo 覆盖旧的关键帧（后写者胜）。
type CameraSystem struct {
	entityManager *ecs.EntityManager
	scheduler     *game.Scheduler
	cameraEntity  ecs.EntityID

	trackerID      game.TimerID // 当前跟踪观察者
	trackSmoothing float64
}

// NewCameraSystem 创建相机系统和相机实体
//
// 参数：
//   - trackSmoothing: 跟踪观察者每 tick 朝目标插值的比例 (0,1]
func NewCameraSystem(em *ecs.EntityManager, scheduler *game.Scheduler, trackSmoothing float64) *CameraSystem {
	if trackSmoothing <= 0 || trackSmoothing > 1 {
		trackSmoothing = 0.12
	}
	cs := &CameraSystem{
		entityManager:  em,
		scheduler:      scheduler,
		trackSmoothing: trackSmoothing,
	}

	cs.cameraEntity = em.CreateEntity()
	ecs.AddComponent(em, cs.cameraEntity, &components.CameraComponent{
		Mode: types.CameraModeNone,
	})
	return cs
}

// Camera 返回相机组件
func (cs *CameraSystem) Camera() *components.CameraComponent {
	cam, _ := ecs.GetComponent[*components.CameraComponent](cs.entityManager, cs.cameraEntity)
	return cam
}

// Entity 返回相机实体ID
func (cs *CameraSystem) Entity() ecs.EntityID {
	return cs.cameraEntity
}

// Update 推进关键帧动画和抖动（PhaseCamera）
func (cs *CameraSystem) Update(dt float64) {
	cam := cs.Camera()
	if cam == nil {
		return
	}

	if cam.IsAnimating {
		cam.ElapsedTicks++
		t := float64(cam.ElapsedTicks) / float64(cam.DurationTicks)
		cam.Position = evalKeyframes(cam.Keyframes, utils.EaseInOutQuad(t))
		if cam.ElapsedTicks >= cam.DurationTicks {
			cam.Position = cam.Keyframes[len(cam.Keyframes)-1]
			cam.IsAnimating = false
		}
	}

	if cam.ShakeAmplitude > 0 {
		cam.ShakeTime += dt
		a := cam.ShakeAmplitude
		cam.ShakeOffset = utils.V3(
			a*math.Sin(cam.ShakeTime*53),
			a*math.Sin(cam.ShakeTime*61+1.3),
			a*0.5*math.Sin(cam.ShakeTime*47+2.1),
		)
	} else {
		cam.ShakeOffset = utils.Vec3{}
	}
}

// evalKeyframes 在关键帧折线上按进度 t ∈ [0,1] 取位置
func evalKeyframes(keys []utils.Vec3, t float64) utils.Vec3 {
	if len(keys) == 0 {
		return utils.Vec3{}
	}
	if len(keys) == 1 || t <= 0 {
		return keys[0]
	}
	if t >= 1 {
		return keys[len(keys)-1]
	}
	segments := float64(len(keys) - 1)
	scaled := t * segments
	i := int(scaled)
	return utils.LerpVec3(keys[i], keys[i+1], scaled-float64(i))
}

// AnimateTo 开始关键帧过渡
//
// 参数：
//   - mode: 目标相机模式
//   - durationTicks: 过渡时长（tick）
//   - positions: 目标位置序列（当前位置自动作为第一个关键帧）
//   - tracked: 可选跟踪目标，过渡期间每 tick 平滑重新瞄准，结束后注销
//
// 返回：
//   - bool: positions 为空时返回 false 且不做任何事
func (cs *CameraSystem) AnimateTo(mode types.CameraMode, durationTicks int, positions []utils.Vec3, tracked Trackable) bool {
	cam := cs.Camera()
	if cam == nil || len(positions) == 0 {
		return false
	}
	if durationTicks < 1 {
		durationTicks = 1
	}

	keys := make([]utils.Vec3, 0, len(positions)+1)
	keys = append(keys, cam.Position)
	keys = append(keys, positions...)

	cam.Mode = mode
	cam.Keyframes = keys
	cam.ElapsedTicks = 0
	cam.DurationTicks = durationTicks
	cam.IsAnimating = true

	if tracked != nil {
		cs.TrackFor(tracked, TicksToMs(durationTicks))
	}

	log.Printf("[CameraSystem] AnimateTo %s over %d ticks (%d keyframes)", mode, durationTicks, len(keys))
	return true
}

// TrackFor 在 durationMs 内每 tick 平滑瞄准目标，之后自动注销
// 新的跟踪会替换旧的跟踪
func (cs *CameraSystem) TrackFor(tracked Trackable, durationMs int) {
	cs.stopTracking()
	if tracked == nil {
		return
	}

	remaining := float64(durationMs) / 1000
	var id game.TimerID
	id = cs.scheduler.Observe(game.PhaseCamera, func(dt float64) bool {
		cam := cs.Camera()
		if cam == nil {
			return false
		}
		cam.Target = utils.LerpVec3(cam.Target, tracked.TrackPosition(), cs.trackSmoothing)
		cam.Yaw, cam.Pitch = utils.YawPitchTo(cam.Position, cam.Target)

		remaining -= dt
		if remaining <= 1e-9 {
			if cs.trackerID == id {
				cs.trackerID = 0
			}
			return false
		}
		return true
	})
	cs.trackerID = id
}

func (cs *CameraSystem) stopTracking() {
	if cs.trackerID != 0 {
		cs.scheduler.Cancel(cs.trackerID)
		cs.trackerID = 0
	}
}

// IsTracking 是否有跟踪观察者
func (cs *CameraSystem) IsTracking() bool {
	return cs.trackerID != 0 && cs.scheduler.Active(cs.trackerID)
}

// StopAnimation 停止关键帧动画和跟踪，相机冻结在当前位置
func (cs *CameraSystem) StopAnimation() {
	cam := cs.Camera()
	if cam == nil {
		return
	}
	cam.IsAnimating = false
	cam.Keyframes = nil
	cs.stopTracking()
}

// IsAnimating 返回相机是否正在动画中
func (cs *CameraSystem) IsAnimating() bool {
	cam := cs.Camera()
	return cam != nil && cam.IsAnimating
}

// Place 立即放置相机（不产生动画）
func (cs *CameraSystem) Place(mode types.CameraMode, position, target utils.Vec3) {
	cs.StopAnimation()
	cam := cs.Camera()
	if cam == nil {
		return
	}
	cam.Mode = mode
	cam.Position = position
	cs.LookAt(target)
}

// LookAt 立即瞄准目标点
func (cs *CameraSystem) LookAt(target utils.Vec3) {
	cam := cs.Camera()
	if cam == nil {
		return
	}
	cam.Target = target
	cam.Yaw, cam.Pitch = utils.YawPitchTo(cam.Position, target)
}

// SetOrientation 设置偏航/俯仰，并据此重算注视点（距离 1）
func (cs *CameraSystem) SetOrientation(yaw, pitch float64) {
	cam := cs.Camera()
	if cam == nil {
		return
	}
	cam.Yaw, cam.Pitch = yaw, pitch
	cam.Target = cam.Position.Add(utils.V3(
		math.Sin(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		-math.Cos(yaw)*math.Cos(pitch),
	))
}

// SetShake 设置抖动幅度（0 停止抖动）
func (cs *CameraSystem) SetShake(amplitude float64) {
	cam := cs.Camera()
	if cam == nil {
		return
	}
	if amplitude < 0 {
		amplitude = 0
	}
	cam.ShakeAmplitude = amplitude
	if amplitude == 0 {
		cam.ShakeOffset = utils.Vec3{}
		cam.ShakeTime = 0
	}
}

// Mode 返回当前相机模式
func (cs *CameraSystem) Mode() types.CameraMode {
	cam := cs.Camera()
	if cam == nil {
		return types.CameraModeNone
	}
	return cam.Mode
}

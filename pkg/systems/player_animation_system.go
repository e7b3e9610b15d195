package systems

import (
	"log"
	"math"
	"strings"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// 动画名称
const (
	AnimIdle     = "idle"
	AnimStruggle = "struggle"
	AnimSitUp    = "sit_up"
)

// 身体挣扎抖动参数
const (
	bodyShakeAmplitude = 0.05 // 弧度
	bodyShakeFrequency = 9.0  // Hz
	sitUpRiseHeight    = 0.3
)

// NormalizeAnimationName 规范化动画名称
// 去掉 "Armature|" 之类的前缀，小写，空格和连字符转为下划线
func NormalizeAnimationName(name string) string {
	if i := strings.LastIndex(name, "|"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
	return name
}

// PlayAnimation 计算播放请求后的动画状态
//
// 返回：
//   - 新状态
//   - bool: 是否需要转发给动画器（同名且同循环方式的动画正在播放时为 false）
func PlayAnimation(state components.AnimationStateComponent, name string, loop bool, speed float64) (components.AnimationStateComponent, bool) {
	name = NormalizeAnimationName(name)
	if name == "" {
		return state, false
	}
	if speed <= 0 {
		speed = 1
	}
	if state.Current == name && state.Loop == loop && state.Requested == "" {
		state.Speed = speed
		return state, false
	}
	state.Requested = name
	state.Loop = loop
	state.Speed = speed
	return state, true
}

// PlayerAnimationSystem 玩家动画
//
// 把动画请求转发给 Animator，驱动身体挣扎抖动（仅视觉）和坐起组合动作。
// 坐起只在 AuthorityCutscene 下修改玩家变换。
type PlayerAnimationSystem struct {
	entityManager *ecs.EntityManager
	playerEntity  ecs.EntityID
	session       *game.Session
	animator      Animator
	pose          config.PlayerPoseConfig
}

// NewPlayerAnimationSystem 创建玩家动画系统
func NewPlayerAnimationSystem(em *ecs.EntityManager, playerEntity ecs.EntityID, session *game.Session,
	animator Animator, pose config.PlayerPoseConfig) *PlayerAnimationSystem {
	return &PlayerAnimationSystem{
		entityManager: em,
		playerEntity:  playerEntity,
		session:       session,
		animator:      animator,
		pose:          pose,
	}
}

// SetAnimator 设置动画器（模型加载完成后）
func (pa *PlayerAnimationSystem) SetAnimator(a Animator) {
	pa.animator = a
}

func (pa *PlayerAnimationSystem) state() *components.AnimationStateComponent {
	s, _ := ecs.GetComponent[*components.AnimationStateComponent](pa.entityManager, pa.playerEntity)
	return s
}

func (pa *PlayerAnimationSystem) body() *components.PlayerBodyComponent {
	b, _ := ecs.GetComponent[*components.PlayerBodyComponent](pa.entityManager, pa.playerEntity)
	return b
}

// Play 请求播放动画（下一次 Update 转发）
func (pa *PlayerAnimationSystem) Play(name string, loop bool, speed float64) {
	s := pa.state()
	if s == nil {
		return
	}
	next, changed := PlayAnimation(*s, name, loop, speed)
	if changed {
		*s = next
	}
}

// Body 程序化身体动画状态（用于渲染抖动偏移）
func (pa *PlayerAnimationSystem) Body() *components.PlayerBodyComponent {
	return pa.body()
}

// CurrentAnimation 当前播放的动画名
func (pa *PlayerAnimationSystem) CurrentAnimation() string {
	if s := pa.state(); s != nil {
		return s.Current
	}
	return ""
}

// StartBodyShake 开始身体挣扎抖动
func (pa *PlayerAnimationSystem) StartBodyShake() {
	if b := pa.body(); b != nil {
		b.BodyShaking = true
		b.ShakeTime = 0
	}
	pa.Play(AnimStruggle, true, 1)
}

// StopBodyShake 停止身体挣扎抖动
func (pa *PlayerAnimationSystem) StopBodyShake() {
	if b := pa.body(); b != nil {
		b.BodyShaking = false
		b.ShakeTime = 0
		b.ShakeOffset = utils.Vec3{}
	}
}

// IsBodyShaking 身体是否在抖动
func (pa *PlayerAnimationSystem) IsBodyShaking() bool {
	b := pa.body()
	return b != nil && b.BodyShaking
}

// StartSitUp 开始坐起组合动作：躺 → 坐 → 站
// 动作期间玩家变换由过场驱动
func (pa *PlayerAnimationSystem) StartSitUp(durationMs int) {
	b := pa.body()
	if b == nil {
		return
	}
	player := pa.session.Player
	player.CutsceneDriven = true

	b.SitUp = components.SitUpMotion{
		Active:       true,
		Duration:     math.Max(float64(durationMs)/1000, 1e-3),
		FromPosition: player.Position,
		FromRotation: player.Rotation,
		ToPosition:   pa.pose.StandPosition,
		ToRotation:   utils.V3(0, pa.pose.StandYaw, 0),
	}
	pa.Play(AnimSitUp, false, 1)
	log.Printf("[PlayerAnimationSystem] Sit-up started (%dms)", durationMs)
}

// IsSittingUp 坐起动作是否进行中
func (pa *PlayerAnimationSystem) IsSittingUp() bool {
	b := pa.body()
	return b != nil && b.SitUp.Active
}

// StopAll 停止所有程序化动画（不修改权限标记）
func (pa *PlayerAnimationSystem) StopAll() {
	pa.StopBodyShake()
	if b := pa.body(); b != nil {
		b.SitUp.Active = false
	}
}

// Update 每 tick 更新（PhaseAnimation）
func (pa *PlayerAnimationSystem) Update(dt float64) {
	if s := pa.state(); s != nil && s.Requested != "" {
		if pa.animator != nil {
			pa.animator.Play(s.Requested, s.Loop, s.Speed)
		}
		s.Current = s.Requested
		s.Requested = ""
	}

	b := pa.body()
	if b == nil {
		return
	}

	if b.BodyShaking {
		b.ShakeTime += dt
		w := 2 * math.Pi * bodyShakeFrequency
		b.ShakeOffset = utils.V3(
			bodyShakeAmplitude*math.Sin(w*b.ShakeTime),
			0,
			bodyShakeAmplitude*0.6*math.Sin(w*1.3*b.ShakeTime+0.7),
		)
	}

	if b.SitUp.Active && pa.session.Player.Authority() == game.AuthorityCutscene {
		pa.updateSitUp(&b.SitUp, dt)
	}
}

func (pa *PlayerAnimationSystem) updateSitUp(m *components.SitUpMotion, dt float64) {
	player := pa.session.Player
	m.Elapsed += dt
	t := utils.Clamp01(m.Elapsed / m.Duration)

	seated := m.FromPosition.Add(utils.V3(0, sitUpRiseHeight, 0))
	if t < 0.5 {
		u := utils.EaseInOutCubic(t / 0.5)
		player.Position = utils.LerpVec3(m.FromPosition, seated, u)
		player.Rotation = utils.V3(utils.Lerp(m.FromRotation.X, 0, u), m.FromRotation.Y, utils.Lerp(m.FromRotation.Z, 0, u))
	} else {
		u := utils.EaseInOutCubic((t - 0.5) / 0.5)
		player.Position = utils.LerpVec3(seated, m.ToPosition, u)
		player.Rotation = utils.V3(0, utils.LerpAngle(m.FromRotation.Y, m.ToRotation.Y, u), 0)
	}
	player.MeshRotation = player.Rotation

	if t >= 1 {
		player.Position = m.ToPosition
		player.Rotation = m.ToRotation
		player.MeshRotation = m.ToRotation
		m.Active = false
		pa.Play(AnimIdle, true, 1)
	}
}

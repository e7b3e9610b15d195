package systems

import (
	"log"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
	"github.com/zyedidia/generic/mapset"
)

// IntroEventKind 开场事件类型
type IntroEventKind int

const (
	// EventStepEntered 进入步骤（动作已执行）
	EventStepEntered IntroEventKind = iota
	// EventStepCompleted 步骤完成，即将推进
	EventStepCompleted
	// EventSkipped 开场被跳过
	EventSkipped
	// EventResumed 开场从头重新开始
	EventResumed
	// EventControlsEnabled 控制已交还给玩家
	EventControlsEnabled
)

// String 返回事件名
func (k IntroEventKind) String() string {
	switch k {
	case EventStepEntered:
		return "step-entered"
	case EventStepCompleted:
		return "step-completed"
	case EventSkipped:
		return "skipped"
	case EventResumed:
		return "resumed"
	case EventControlsEnabled:
		return "controls-enabled"
	default:
		return "unknown"
	}
}

// IntroEvent 开场事件
type IntroEvent struct {
	Kind      IntroEventKind
	StepIndex int
}

// IntroSystems 开场控制器依赖的协作方
type IntroSystems struct {
	Narrator  Narrator
	Camera    *CameraSystem
	Restraint *RestraintSystem
	Gate      *BreakFreeGateSystem
	Animation *PlayerAnimationSystem
	Lock      *RestrainedLockSystem
	Overlay   Overlay
	Pointer   PointerLock
	Strings   *game.NarrationStrings
}

// IntroSequenceSystem 开场序列控制器
//
// 状态机：Idle → Playing(i) → Skipped | Completed。
// 步骤严格按顺序推进，推进只有一个入口 Advance：
//   - 有台词的步骤在旁白完成并停顿 PostLinePauseMs 后推进
//   - 无台词的步骤在 DelayMs 后推进
//   - prompt-break-free 步骤等待挣脱输入门完成
//
// 所有延迟回调都登记在 pending 中，并在执行时检查代数（Generation）和 Skipped。
type IntroSequenceSystem struct {
	entityManager *ecs.EntityManager
	introEntity   ecs.EntityID
	session       *game.Session
	scheduler     *game.Scheduler
	cfg           *config.IntroConfig
	sys           IntroSystems

	pending   mapset.Set[game.TimerID]
	listeners []func(IntroEvent)
	lineSeq   int // 每句旁白递增，旧句的完成回调不再生效
}

// NewIntroSequenceSystem 创建开场控制器
func NewIntroSequenceSystem(em *ecs.EntityManager, introEntity ecs.EntityID, session *game.Session,
	cfg *config.IntroConfig, sys IntroSystems) *IntroSequenceSystem {
	return &IntroSequenceSystem{
		entityManager: em,
		introEntity:   introEntity,
		session:       session,
		scheduler:     session.Scheduler,
		cfg:           cfg,
		sys:           sys,
		pending:       mapset.New[game.TimerID](),
	}
}

// Cursor 返回序列游标
func (is *IntroSequenceSystem) Cursor() *components.IntroSequenceComponent {
	c, _ := ecs.GetComponent[*components.IntroSequenceComponent](is.entityManager, is.introEntity)
	return c
}

// State 当前状态
func (is *IntroSequenceSystem) State() components.IntroState {
	return is.Cursor().State
}

// StepIndex 当前步骤
func (is *IntroSequenceSystem) StepIndex() int {
	return is.Cursor().StepIndex
}

// PendingCount 未执行的延迟回调数量
func (is *IntroSequenceSystem) PendingCount() int {
	return is.pending.Size()
}

// Subscribe 订阅开场事件
func (is *IntroSequenceSystem) Subscribe(fn func(IntroEvent)) {
	is.listeners = append(is.listeners, fn)
}

func (is *IntroSequenceSystem) emit(kind IntroEventKind, step int) {
	ev := IntroEvent{Kind: kind, StepIndex: step}
	for _, fn := range is.listeners {
		fn(ev)
	}
}

// Start 从第 0 步开始播放，仅在 Idle 状态有效
func (is *IntroSequenceSystem) Start() bool {
	cur := is.Cursor()
	if cur.State != components.IntroIdle || len(is.cfg.Steps) == 0 {
		return false
	}
	cur.State = components.IntroPlaying
	cur.StepIndex = 0
	cur.Skipped = false
	cur.PostBreakLine = -1
	cur.Generation++
	is.session.Player.ControlsEnabled = false

	log.Printf("[IntroSequenceSystem] Started (%d steps)", len(is.cfg.Steps))
	is.enterStep(0)
	return true
}

// Advance 推进到下一步；已在最后一步时保持不动等待外部输入
func (is *IntroSequenceSystem) Advance() {
	cur := is.Cursor()
	if cur.State != components.IntroPlaying {
		return
	}
	is.emit(EventStepCompleted, cur.StepIndex)
	if cur.StepIndex+1 >= len(is.cfg.Steps) {
		return
	}
	cur.StepIndex++
	is.enterStep(cur.StepIndex)
}

func (is *IntroSequenceSystem) enterStep(i int) {
	cur := is.Cursor()
	gen := cur.Generation
	step := is.cfg.Steps[i]

	log.Printf("[IntroSequenceSystem] Step %d: action=%q line=%q", i, step.Action, step.Line)
	is.PerformAction(step.Action)
	if is.stale(gen) {
		return
	}
	is.emit(EventStepEntered, i)

	awaitsGate := step.Action == types.ActionPromptBreakFree
	switch {
	case step.HasLine():
		is.speakLine(step.Line, func() {
			if !awaitsGate {
				is.schedule(is.cfg.Timing.PostLinePauseMs, is.Advance)
			}
		})
	case !awaitsGate:
		is.schedule(step.DelayMs, is.Advance)
	}
}

// stale 延迟回调是否已过期（跳过、重启或已离开播放状态）
func (is *IntroSequenceSystem) stale(gen int) bool {
	cur := is.Cursor()
	return cur.Generation != gen || cur.Skipped || cur.State != components.IntroPlaying
}

// schedule 登记一个受代数保护的延迟回调
func (is *IntroSequenceSystem) schedule(ms int, fn func()) {
	gen := is.Cursor().Generation
	var id game.TimerID
	id = is.scheduler.After(ms, func() {
		is.pending.Remove(id)
		if is.stale(gen) {
			return
		}
		fn()
	})
	is.pending.Put(id)
}

func (is *IntroSequenceSystem) cancelPending() {
	is.pending.Each(func(id game.TimerID) {
		is.scheduler.Cancel(id)
	})
	is.pending = mapset.New[game.TimerID]()
}

// speakLine 显示字幕并播放旁白，完成后隐藏字幕并调用 then
// 新的一句会取消正在播放的旧句；旧句的完成回调不隐藏新字幕，也不继续推进
func (is *IntroSequenceSystem) speakLine(line string, then func()) {
	gen := is.Cursor().Generation
	is.lineSeq++
	seq := is.lineSeq
	if is.sys.Overlay != nil && is.session.Settings.GetSettings().Subtitles {
		is.sys.Overlay.ShowSubtitle(is.sys.Strings.Get(line))
	}

	done := func() {
		if is.stale(gen) || seq != is.lineSeq {
			return
		}
		if is.sys.Overlay != nil {
			is.sys.Overlay.HideSubtitle()
		}
		then()
	}
	if is.sys.Narrator == nil {
		is.schedule(0, done)
		return
	}
	is.sys.Narrator.Speak(line, done)
}

// PerformAction 执行动作标签
// 返回 false 表示动作被守卫拒绝或未知
func (is *IntroSequenceSystem) PerformAction(tag types.ActionTag) bool {
	switch tag {
	case types.ActionNone:
		return true
	case types.ActionWake:
		return is.actionWake()
	case types.ActionStruggle:
		return is.actionStruggle()
	case types.ActionSwitchToFirstPerson:
		return is.actionSwitchToFirstPerson()
	case types.ActionPromptBreakFree:
		return is.actionPromptBreakFree()
	case types.ActionBreakFree:
		return is.actionBreakFree()
	case types.ActionSitUp:
		return is.actionSitUp()
	case types.ActionEnableControls:
		return is.actionEnableControls()
	default:
		log.Printf("[IntroSequenceSystem] Unknown action %q", tag)
		return false
	}
}

func (is *IntroSequenceSystem) playerHead() Trackable {
	return TrackFunc(func() utils.Vec3 {
		return is.session.Player.Position.Add(utils.V3(0, 0.15, 0))
	})
}

func (is *IntroSequenceSystem) actionWake() bool {
	c := is.cfg.Camera
	is.Cursor().CameraMode = types.CameraModeCeiling
	is.sys.Camera.AnimateTo(types.CameraModeCeiling, c.WakeTicks, c.WakePositions, is.playerHead())
	return true
}

func (is *IntroSequenceSystem) actionStruggle() bool {
	is.sys.Restraint.StartShakeAll()
	// 被束缚时身体由束缚锁定固定，只有束缚带抖动
	if is.sys.Animation != nil && !is.session.Player.IsRestrained {
		is.sys.Animation.StartBodyShake()
	}
	return true
}

func (is *IntroSequenceSystem) actionSwitchToFirstPerson() bool {
	c := is.cfg.Camera
	is.sys.Restraint.StopShakeAll()
	if is.sys.Animation != nil {
		is.sys.Animation.StopBodyShake()
	}

	is.Cursor().CameraMode = types.CameraModeFirstPerson
	is.sys.Camera.AnimateTo(types.CameraModeFirstPerson, c.FirstPersonTicks,
		[]utils.Vec3{c.FirstPersonPosition}, FixedTarget(c.FirstPersonLookAt))
	is.schedule(TicksToMs(c.FirstPersonTicks), func() {
		is.sys.Camera.LookAt(c.FirstPersonLookAt)
	})
	is.session.Player.MeshVisible = false
	return true
}

func (is *IntroSequenceSystem) actionPromptBreakFree() bool {
	gen := is.Cursor().Generation
	return is.sys.Gate.Activate(func() {
		if is.stale(gen) {
			return
		}
		is.PerformAction(types.ActionBreakFree)
		is.runPostBreak(0)
	})
}

// runPostBreak 挣脱后的台词链：逐句播放 → 坐起 → 固定延迟 → 交还控制
func (is *IntroSequenceSystem) runPostBreak(k int) {
	cur := is.Cursor()
	cur.PostBreakLine = k

	if k >= len(is.cfg.BreakFreeLines) {
		is.PerformAction(types.ActionSitUp)
		is.schedule(is.cfg.Timing.SitUpDurationMs, func() {
			is.PerformAction(types.ActionEnableControls)
		})
		return
	}
	is.speakLine(is.cfg.BreakFreeLines[k], func() {
		is.schedule(is.cfg.Timing.PostLinePauseMs, func() { is.runPostBreak(k + 1) })
	})
}

func (is *IntroSequenceSystem) actionBreakFree() bool {
	n := is.sys.Restraint.BreakAll()
	is.sys.Camera.SetShake(0)
	log.Printf("[IntroSequenceSystem] Break free: %d restraints snapped", n)
	return true
}

func (is *IntroSequenceSystem) actionSitUp() bool {
	player := is.session.Player
	if player.IsRestrained && !is.sys.Restraint.AllBroken() {
		log.Printf("[IntroSequenceSystem] sit-up ignored: player is still restrained")
		return false
	}

	c := is.cfg.Camera
	if is.sys.Animation != nil {
		is.sys.Animation.StopBodyShake()
		is.sys.Animation.StartSitUp(is.cfg.Timing.SitUpDurationMs)
	}
	is.Cursor().CameraMode = types.CameraModeThirdPerson
	is.sys.Camera.AnimateTo(types.CameraModeThirdPerson, c.SitUpTicks, c.ThirdPersonPositions, nil)
	is.sys.Camera.TrackFor(TrackFunc(func() utils.Vec3 {
		return player.Position.Add(utils.V3(0, is.cfg.Player.HeadHeight*0.8, 0))
	}), c.TrackerMs)
	player.MeshVisible = true
	return true
}

// actionEnableControls 交还控制：开场的唯一出口
func (is *IntroSequenceSystem) actionEnableControls() bool {
	cur := is.Cursor()
	cur.State = components.IntroCompleted
	cur.Generation++
	is.cancelPending()

	if is.sys.Narrator != nil {
		is.sys.Narrator.Cancel()
	}
	is.sys.Gate.Deactivate()
	is.sys.Restraint.StopShakeAll()
	if is.sys.Animation != nil {
		is.sys.Animation.StopAll()
	}

	player := is.session.Player
	pose := is.cfg.Player
	player.ControlsEnabled = true
	player.IsRestrained = false
	player.CutsceneDriven = false
	player.Position = pose.StandPosition
	player.Rotation = utils.V3(0, pose.StandYaw, 0)
	player.MeshRotation = player.Rotation
	player.MeshVisible = false

	cur.CameraMode = types.CameraModeFirstPerson
	eye := pose.StandPosition.Add(utils.V3(0, pose.HeadHeight, 0))
	is.sys.Camera.StopAnimation()
	is.sys.Camera.SetShake(0)
	is.sys.Camera.Place(types.CameraModeFirstPerson, eye, eye)
	is.sys.Camera.SetOrientation(is.cfg.Camera.DefaultYaw, is.cfg.Camera.DefaultPitch)

	if is.sys.Overlay != nil {
		is.sys.Overlay.HideSubtitle()
		is.sys.Overlay.HideBreakFreePrompt()
	}
	is.session.Paused = false
	if is.sys.Pointer != nil {
		is.sys.Pointer.Capture()
	}

	log.Printf("[IntroSequenceSystem] Controls enabled")
	is.emit(EventControlsEnabled, cur.StepIndex)
	return true
}

// Skip 跳过开场：取消所有待执行的工作，停止动画，玩家保持被束缚
// 仅在播放中有效
func (is *IntroSequenceSystem) Skip() bool {
	cur := is.Cursor()
	if cur.State != components.IntroPlaying {
		return false
	}
	cur.State = components.IntroSkipped
	cur.Skipped = true
	cur.Generation++
	is.cancelPending()

	if is.sys.Narrator != nil {
		is.sys.Narrator.Cancel()
	}
	if is.sys.Overlay != nil {
		is.sys.Overlay.HideSubtitle()
	}
	is.sys.Gate.Deactivate()
	is.sys.Restraint.StopAnimations()
	if is.sys.Animation != nil {
		is.sys.Animation.StopAll()
	}
	is.sys.Camera.StopAnimation()
	is.sys.Camera.SetShake(0)
	is.session.Player.CutsceneDriven = false

	log.Printf("[IntroSequenceSystem] Skipped at step %d", cur.StepIndex)
	is.emit(EventSkipped, cur.StepIndex)
	return true
}

// Restrain 把玩家重新束缚在床上并回到 Idle
// 束缚带重建为未断裂状态，相机回到天花板视角
func (is *IntroSequenceSystem) Restrain() {
	if is.Cursor().State == components.IntroPlaying {
		is.Skip()
	}

	cur := is.Cursor()
	cur.State = components.IntroIdle
	cur.StepIndex = 0
	cur.Skipped = false
	cur.PostBreakLine = -1
	cur.Generation++
	is.cancelPending()

	player := is.session.Player
	player.IsRestrained = true
	player.ControlsEnabled = false
	player.CutsceneDriven = false
	player.MeshVisible = true
	if is.sys.Lock != nil {
		is.sys.Lock.Pin()
	}
	if is.sys.Pointer != nil {
		is.sys.Pointer.Release()
	}
	if is.sys.Animation != nil {
		is.sys.Animation.StopAll()
	}

	is.sys.Restraint.ResetAll()
	is.sys.Restraint.AttachAll(is.cfg.BoneFor)
	is.sys.Gate.Reset()

	c := is.cfg.Camera
	cur.CameraMode = types.CameraModeCeiling
	is.sys.Camera.SetShake(0)
	is.sys.Camera.Place(types.CameraModeCeiling, c.CeilingPosition, c.CeilingTarget)
	if is.sys.Overlay != nil {
		is.sys.Overlay.HideSubtitle()
		is.sys.Overlay.HideBreakFreePrompt()
	}
	log.Printf("[IntroSequenceSystem] Player restrained")
}

// Resume 从头重新播放开场（重新束缚后 Start），播放中无效
func (is *IntroSequenceSystem) Resume() bool {
	if is.Cursor().State == components.IntroPlaying {
		return false
	}
	is.Restrain()
	is.emit(EventResumed, 0)
	return is.Start()
}

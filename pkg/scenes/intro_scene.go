package scenes

import (
	"fmt"
	"image/color"
	"log"
	"math"
	"math/rand"

	"github.com/gonewx/cellbreak/internal/tts"
	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/entities"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/systems"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// 俯视调试视图
const (
	viewScale     = 90.0 // 每世界单位像素数
	pickRadius    = 0.6
	pickDistance  = 2.5
	defaultSeed   = 1
	sparkPixelLen = 2.0
)

var (
	backgroundColor = color.RGBA{18, 20, 24, 255}
	bedColor        = color.RGBA{70, 70, 80, 255}
	bandColor       = color.RGBA{170, 170, 180, 255}
	bandHotColor    = color.RGBA{255, 110, 40, 255}
	brokenColor     = color.RGBA{90, 90, 95, 255}
	sparkColor      = color.RGBA{255, 220, 120, 255}
	playerColor     = color.RGBA{80, 200, 120, 255}
	cameraColor     = color.RGBA{90, 160, 255, 255}
	itemColor       = color.RGBA{220, 200, 60, 255}
	usedItemColor   = color.RGBA{90, 80, 40, 255}
)

// IntroSceneOptions 场景构建参数
type IntroSceneOptions struct {
	LevelID   int
	Intro     *config.IntroConfig // nil 使用嵌入的 data/intro.yaml
	Session   *game.Session       // nil 创建新会话
	Saves     *game.SaveManager   // nil 使用内存存档
	Engine    systems.SpeechEngine
	Input     systems.InputSource
	Pointer   systems.PointerLock
	Animator  systems.Animator
	SkipIntro bool
	// AutosaveSlot 退出时自动保存的槽位，空表示不保存
	AutosaveSlot string
	Seed         int64
	// OnRestraintSnap 每条束缚带断裂时调用（音效），可为 nil
	OnRestraintSnap func(pos utils.Vec3)
}

// IntroScene 关卡场景
//
// 构建束缚带、玩家、相机和 HUD，按固定阶段把各系统注册到会话调度器：
// 输入 → 束缚 → 相机 → 动画 → UI。关卡带开场时自动播放开场过场。
type IntroScene struct {
	entityManager *ecs.EntityManager
	session       *game.Session
	scheduler     *game.Scheduler
	cfg           *config.IntroConfig
	levelCfg      *config.LevelConfig
	saves         *game.SaveManager
	strings       *game.NarrationStrings
	input         systems.InputSource
	autosaveSlot  string

	hud       *HUD
	speech    *systems.SpeechSystem
	camera    *systems.CameraSystem
	restraint *systems.RestraintSystem
	gate      *systems.BreakFreeGateSystem
	anim      *systems.PlayerAnimationSystem
	lock      *systems.RestrainedLockSystem
	control   *systems.PlayerControlSystem
	sparks    *systems.SparkSystem
	lifetime  *systems.LifetimeSystem
	intro     *systems.IntroSequenceSystem
	engine    systems.SpeechEngine
}

// NewIntroScene 创建关卡场景
func NewIntroScene(opts IntroSceneOptions) (*IntroScene, error) {
	cfg := opts.Intro
	if cfg == nil {
		cfg = config.LoadIntroConfigOrDefault(config.DefaultIntroConfigPath)
	}
	session := opts.Session
	if session == nil {
		session = game.NewSession(nil)
	}
	saves := opts.Saves
	if saves == nil {
		var err error
		if saves, err = game.NewSaveManager(nil); err != nil {
			return nil, fmt.Errorf("failed to create save manager: %w", err)
		}
	}
	input := opts.Input
	if input == nil {
		input = NewManualInput()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = defaultSeed
	}

	strs, err := game.NewNarrationStrings(session.Settings.GetSettings().Language)
	if err != nil {
		log.Printf("[IntroScene] Warning: %v, using source text", err)
	}

	em := ecs.NewEntityManager()
	sc := &IntroScene{
		entityManager: em,
		session:       session,
		scheduler:     session.Scheduler,
		cfg:           cfg,
		saves:         saves,
		strings:       strs,
		input:         input,
		autosaveSlot:  opts.AutosaveSlot,
		hud:           NewHUD(strs),
	}

	session.SetLevelLoader(sc.loadLevel)
	levelID := opts.LevelID
	if levelID <= 0 {
		levelID = 1
	}
	if err := session.LoadLevel(levelID); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	spawner := &EmbeddedPropSpawner{}

	engine := opts.Engine
	if engine == nil {
		engine = tts.NewSimulatedEngine(session.Scheduler, tts.DefaultVoices(), cfg.Speech.WordsPerSecond)
	}
	sc.engine = engine
	sc.speech = systems.NewSpeechSystem(session.Scheduler, engine, session.Settings, cfg.Speech, cfg.Timing)

	sc.camera = systems.NewCameraSystem(em, session.Scheduler, cfg.Camera.TrackSmoothing)

	sc.restraint = systems.NewRestraintSystem(em, cfg.Restraint, rng)
	sc.restraint.SetSkeleton(NewPlayerSkeleton(session.Player, cfg))
	sc.restraint.SetBandFactory(func(limb types.Limb) ecs.EntityID {
		return entities.NewRestraintBandEntity(em, cfg.Restraint, limb, cfg.RestPositionFor(limb), spawner.SpawnProp, rng)
	})
	sparkLifetime := float64(cfg.Timing.SparkLifetimeMs) / 1000
	sc.restraint.SetSparkSpawner(func(pos utils.Vec3) {
		entities.NewSparkBurstEntity(em, pos, cfg.Restraint.SparkCount, sparkLifetime, rng)
		if opts.OnRestraintSnap != nil {
			opts.OnRestraintSnap(pos)
		}
	})

	sc.gate = systems.NewBreakFreeGateSystem(em, session.Scheduler, entities.NewBreakFreeGateEntity(em),
		cfg.Gate, input, sc.camera, sc.restraint, sc.hud)

	animator := opts.Animator
	if animator == nil {
		animator = &loggingAnimator{}
	}
	sc.anim = systems.NewPlayerAnimationSystem(em, entities.NewPlayerEntity(em), session, animator, cfg.Player)
	sc.lock = systems.NewRestrainedLockSystem(session, cfg.Player)
	picker := &game.RadiusPicker{Session: session, Radius: pickRadius, MaxDistance: pickDistance}
	sc.control = systems.NewPlayerControlSystem(session, input, sc.camera, picker, sc.hud, strs, cfg.Player)
	sc.sparks = systems.NewSparkSystem(em)
	sc.lifetime = systems.NewLifetimeSystem(em)

	sc.intro = systems.NewIntroSequenceSystem(em, entities.NewIntroSequenceEntity(em), session, cfg, systems.IntroSystems{
		Narrator:  sc.speech,
		Camera:    sc.camera,
		Restraint: sc.restraint,
		Gate:      sc.gate,
		Animation: sc.anim,
		Lock:      sc.lock,
		Overlay:   sc.hud,
		Pointer:   opts.Pointer,
		Strings:   strs,
	})
	sc.intro.Subscribe(sc.onIntroEvent)

	sc.registerObservers()

	sc.intro.Restrain()
	switch {
	case !sc.levelCfg.HasIntro:
		sc.EnterGameplay()
		session.Player.Position = sc.levelCfg.PlayerSpawn
		session.Player.Rotation = utils.V3(0, cfg.Player.StandYaw, 0)
		sc.placeFirstPersonCamera()
	case opts.SkipIntro:
		log.Printf("[IntroScene] Intro skipped by option")
		sc.EnterGameplay()
	default:
		sc.intro.Start()
	}

	log.Printf("[IntroScene] Level %d (%s) ready", levelID, sc.levelCfg.Name)
	return sc, nil
}

// registerObservers 按固定阶段顺序注册系统
func (sc *IntroScene) registerObservers() {
	observe := func(phase game.Phase, fn func(float64)) {
		sc.scheduler.Observe(phase, func(dt float64) bool {
			fn(dt)
			return true
		})
	}
	observe(game.PhaseInput, sc.control.Update)
	observe(game.PhaseRestraint, sc.lock.Update)
	observe(game.PhaseRestraint, sc.restraint.Update)
	observe(game.PhaseCamera, sc.camera.Update)
	observe(game.PhaseAnimation, sc.anim.Update)
	observe(game.PhaseAnimation, sc.sparks.Update)
	observe(game.PhaseAnimation, func(dt float64) { sc.lifetime.Update(dt) })
	observe(game.PhaseUI, sc.hud.Update)
}

// loadLevel 会话的关卡加载钩子
func (sc *IntroScene) loadLevel(levelID int) error {
	levelCfg, err := config.LoadLevelConfig(config.LevelConfigPath(levelID))
	if err != nil {
		return err
	}
	items, err := game.NewInteractablesFromConfig(levelCfg.Interactables)
	if err != nil {
		return fmt.Errorf("level %d: %w", levelID, err)
	}
	sc.levelCfg = levelCfg
	sc.session.SetInteractables(items)
	if sc.session.Player.ControlsEnabled {
		sc.setObjective()
	}
	return nil
}

func (sc *IntroScene) onIntroEvent(ev systems.IntroEvent) {
	log.Printf("[IntroScene] Intro event %s (step %d)", ev.Kind, ev.StepIndex)
	if ev.Kind == systems.EventControlsEnabled {
		sc.setObjective()
	}
}

func (sc *IntroScene) setObjective() {
	if sc.levelCfg == nil || sc.levelCfg.Objective == "" {
		return
	}
	text := sc.strings.Get(sc.levelCfg.Objective)
	sc.session.Objective = text
	sc.hud.SetObjective(text)
}

// EnterGameplay 结束开场并交还控制（束缚带立即断裂）
// 已完成开场时无效
func (sc *IntroScene) EnterGameplay() bool {
	if sc.intro.State() == components.IntroCompleted {
		return false
	}
	if sc.intro.State() == components.IntroPlaying {
		sc.intro.Skip()
	}
	sc.restraint.BreakAll()
	return sc.intro.PerformAction(types.ActionEnableControls)
}

// SaveSlot 保存到槽位
func (sc *IntroScene) SaveSlot(slot string) error {
	return sc.saves.Save(slot, sc.session)
}

// LoadSlot 从槽位读档
// 开场未完成时先交还控制，再恢复存档的位置和状态
func (sc *IntroScene) LoadSlot(slot string) error {
	blob, err := sc.saves.LoadBlob(slot)
	if err != nil {
		return err
	}
	sc.EnterGameplay()
	if err := game.ApplySaveBlob(sc.session, blob); err != nil {
		return err
	}
	sc.placeFirstPersonCamera()
	sc.setObjective()
	log.Printf("[IntroScene] Loaded slot %q", slot)
	return nil
}

func (sc *IntroScene) placeFirstPersonCamera() {
	eye := sc.control.EyePosition()
	sc.camera.Place(types.CameraModeFirstPerson, eye, eye)
	sc.camera.SetOrientation(sc.session.Player.Rotation.Y, sc.cfg.Camera.DefaultPitch)
}

// SaveOnExit 实现 game.Saveable
func (sc *IntroScene) SaveOnExit() bool {
	if sc.autosaveSlot == "" || !sc.session.Player.ControlsEnabled {
		return true
	}
	if err := sc.SaveSlot(sc.autosaveSlot); err != nil {
		log.Printf("[IntroScene] Autosave failed: %v", err)
		return false
	}
	return true
}

// Update 推进一个 tick
func (sc *IntroScene) Update(deltaTime float64) {
	sc.scheduler.Tick(deltaTime)
	sc.entityManager.RemoveMarkedEntities()
	if in, ok := sc.input.(interface{ EndTick() }); ok {
		in.EndTick()
	}
}

// Draw 俯视调试渲染 + HUD
func (sc *IntroScene) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	cx, cy := float64(w)/2, float64(h)/2
	project := func(p utils.Vec3) (float64, float64) {
		return cx + p.X*viewScale, cy + p.Z*viewScale
	}

	bed := sc.cfg.Player.BedPosition
	bx, by := project(bed.Add(utils.V3(-0.5, 0, -0.3)))
	ebitenutil.DrawRect(screen, bx, by, viewScale, viewScale*1.4, bedColor)

	for _, it := range sc.session.Interactables {
		x, y := project(it.Position)
		c := itemColor
		if sc.session.IsUsed(it.ID) {
			c = usedItemColor
		}
		ebitenutil.DrawRect(screen, x-3, y-3, 6, 6, c)
	}

	for _, id := range sc.restraint.Bands() {
		band, ok := ecs.GetComponent[*components.RestraintBandComponent](sc.entityManager, id)
		if !ok {
			continue
		}
		radius := sc.cfg.Restraint.Radius * viewScale * 2
		for _, seg := range band.Segments {
			p := band.Position.Add(seg.Offset)
			x, y := project(p)
			a := seg.Angle + (seg.BendAngle+seg.ShakeAngle)*math.Pi/180
			c := blendColor(bandColor, bandHotColor, seg.Emissive)
			if band.Broken {
				c = brokenColor
			}
			ebitenutil.DrawLine(screen,
				x+math.Cos(seg.Angle)*radius, y+math.Sin(seg.Angle)*radius,
				x+math.Cos(a)*radius*seg.StretchScale, y+math.Sin(a)*radius*seg.CompressScale, c)
		}
	}

	for _, id := range ecs.GetEntitiesWith1[*components.SparkComponent](sc.entityManager) {
		spark, ok := ecs.GetComponent[*components.SparkComponent](sc.entityManager, id)
		if !ok {
			continue
		}
		for _, p := range spark.Particles {
			x, y := project(p.Position)
			c := sparkColor
			c.A = uint8(255 * utils.Clamp01(p.Alpha))
			ebitenutil.DrawRect(screen, x, y, sparkPixelLen, sparkPixelLen, c)
		}
	}

	player := sc.session.Player
	if player.MeshVisible {
		body := sc.anim.Body()
		off := utils.Vec3{}
		if body != nil {
			off = body.ShakeOffset
		}
		px, py := project(player.Position.Add(off))
		ebitenutil.DrawRect(screen, px-5, py-5, 10, 10, playerColor)
	}

	cam := sc.camera.Camera()
	if cam != nil {
		x, y := project(cam.Position.Add(cam.ShakeOffset))
		tx, ty := project(cam.Target)
		ebitenutil.DrawLine(screen, x, y, tx, ty, cameraColor)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  %s  anim:%s", cam.Mode, player.Authority(), sc.anim.CurrentAnimation()),
			12, h-20)
	}

	sc.hud.Draw(screen)
}

func blendColor(a, b color.RGBA, t float64) color.RGBA {
	t = utils.Clamp01(t)
	mix := func(x, y uint8) uint8 {
		return uint8(utils.Lerp(float64(x), float64(y), t))
	}
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

// Session 当前会话
func (sc *IntroScene) Session() *game.Session { return sc.session }

// Intro 开场控制器
func (sc *IntroScene) Intro() *systems.IntroSequenceSystem { return sc.intro }

// Restraint 束缚带系统
func (sc *IntroScene) Restraint() *systems.RestraintSystem { return sc.restraint }

// Gate 挣脱输入门
func (sc *IntroScene) Gate() *systems.BreakFreeGateSystem { return sc.gate }

// Camera 相机系统
func (sc *IntroScene) Camera() *systems.CameraSystem { return sc.camera }

// HUD 叠加层
func (sc *IntroScene) HUD() *HUD { return sc.hud }

// Saves 存档管理器
func (sc *IntroScene) Saves() *game.SaveManager { return sc.saves }

// Strings 本地化文本
func (sc *IntroScene) Strings() *game.NarrationStrings { return sc.strings }

// Level 当前关卡配置
func (sc *IntroScene) Level() *config.LevelConfig { return sc.levelCfg }

// Engine 语音引擎
func (sc *IntroScene) Engine() systems.SpeechEngine { return sc.engine }

// loggingAnimator 没有模型时记录动画请求
type loggingAnimator struct{}

func (loggingAnimator) Play(name string, loop bool, speed float64) {
	log.Printf("[Animator] Play %s (loop=%v speed=%.2f)", name, loop, speed)
}

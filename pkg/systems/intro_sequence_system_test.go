package systems

import (
	"math/rand"
	"testing"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/entities"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

type introFixture struct {
	em        *ecs.EntityManager
	cfg       *config.IntroConfig
	session   *game.Session
	intro     *IntroSequenceSystem
	camera    *CameraSystem
	restraint *RestraintSystem
	gate      *BreakFreeGateSystem
	anim      *PlayerAnimationSystem
	animator  *fakeAnimator
	narrator  *fakeNarrator
	overlay   *fakeOverlay
	pointer   *fakePointer
	input     *fakeInput
	events    []IntroEvent
}

// newIntroFixture 按场景的方式组装开场（观察者按固定阶段注册）
func newIntroFixture(narrator Narrator) *introFixture {
	em := ecs.NewEntityManager()
	cfg := config.DefaultIntroConfig()
	session := game.NewSession(nil)
	s := session.Scheduler
	rng := rand.New(rand.NewSource(9))

	f := &introFixture{
		em:       em,
		cfg:      cfg,
		session:  session,
		overlay:  &fakeOverlay{},
		pointer:  &fakePointer{},
		input:    newFakeInput(),
		animator: &fakeAnimator{},
	}
	if fn, ok := narrator.(*fakeNarrator); ok {
		f.narrator = fn
	}

	f.camera = NewCameraSystem(em, s, cfg.Camera.TrackSmoothing)
	f.restraint = NewRestraintSystem(em, cfg.Restraint, rng)
	f.restraint.SetBandFactory(func(limb types.Limb) ecs.EntityID {
		return entities.NewRestraintBandEntity(em, cfg.Restraint, limb, cfg.RestPositionFor(limb), nil, rng)
	})
	f.restraint.SetSkeleton(&fakeSkeleton{bones: []Bone{
		{Name: "hand.L", Position: utils.V3(-0.35, 0.6, -0.1)},
		{Name: "hand.R", Position: utils.V3(0.35, 0.6, -0.1)},
		{Name: "foot.L", Position: utils.V3(-0.15, 0.6, 0.85)},
		{Name: "foot.R", Position: utils.V3(0.15, 0.6, 0.85)},
	}})
	f.gate = NewBreakFreeGateSystem(em, s, entities.NewBreakFreeGateEntity(em), cfg.Gate, f.input, f.camera, f.restraint, f.overlay)
	f.anim = NewPlayerAnimationSystem(em, entities.NewPlayerEntity(em), session, f.animator, cfg.Player)
	lock := NewRestrainedLockSystem(session, cfg.Player)

	f.intro = NewIntroSequenceSystem(em, entities.NewIntroSequenceEntity(em), session, cfg, IntroSystems{
		Narrator:  narrator,
		Camera:    f.camera,
		Restraint: f.restraint,
		Gate:      f.gate,
		Animation: f.anim,
		Lock:      lock,
		Overlay:   f.overlay,
		Pointer:   f.pointer,
	})
	f.intro.Subscribe(func(ev IntroEvent) { f.events = append(f.events, ev) })

	observe := func(phase game.Phase, fn func(float64)) {
		s.Observe(phase, func(dt float64) bool { fn(dt); return true })
	}
	observe(game.PhaseRestraint, lock.Update)
	observe(game.PhaseRestraint, f.restraint.Update)
	observe(game.PhaseCamera, f.camera.Update)
	observe(game.PhaseAnimation, f.anim.Update)

	f.intro.Restrain()
	return f
}

func (f *introFixture) tick(n int) {
	tickN(f.session.Scheduler, n)
}

func (f *introFixture) hasEvent(kind IntroEventKind) bool {
	for _, ev := range f.events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

// playToGate 自动完成旁白，推进到挣脱提示步骤
func (f *introFixture) playToGate(t *testing.T) {
	t.Helper()
	if !f.intro.Start() {
		t.Fatal("Start 应返回 true")
	}
	for i := 0; i < 600 && !f.gate.IsActive(); i++ {
		f.tick(1)
	}
	if !f.gate.IsActive() {
		t.Fatalf("应推进到挣脱提示, 当前步骤 %d", f.intro.StepIndex())
	}
}

// TestScenarioLineCompletionAdvances 旁白完成后经过停顿推进到下一步
func TestScenarioLineCompletionAdvances(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{})
	f.intro.Start()

	if len(f.narrator.lines) != 1 || f.narrator.lines[0] != "Ugh... where am I?" {
		t.Fatalf("第 0 步应播放 %q, got %v", "Ugh... where am I?", f.narrator.lines)
	}
	if !f.overlay.subtitleShown {
		t.Error("播放台词时应显示字幕")
	}

	// 旁白未完成时不会推进
	f.tick(300)
	if f.intro.StepIndex() != 0 {
		t.Fatalf("旁白完成前 StepIndex = %d, 期望 0", f.intro.StepIndex())
	}

	f.narrator.completeAll()
	if f.overlay.subtitleShown {
		t.Error("旁白完成后应隐藏字幕")
	}
	f.tick(29)
	if f.intro.StepIndex() != 0 {
		t.Errorf("停顿结束前 StepIndex = %d, 期望 0", f.intro.StepIndex())
	}
	f.tick(1)
	if f.intro.StepIndex() != 1 {
		t.Errorf("StepIndex = %d, 期望 1", f.intro.StepIndex())
	}
	if len(f.narrator.lines) != 2 {
		t.Errorf("第 1 步应开始播放台词")
	}
}

// TestScenarioSkipMidSpeech 播放台词时跳过：隐藏字幕、取消语音、不再推进
func TestScenarioSkipMidSpeech(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{})
	f.intro.Start()
	f.tick(10)

	if !f.intro.Skip() {
		t.Fatal("Skip 应返回 true")
	}
	if f.overlay.subtitleShown {
		t.Error("跳过后字幕应隐藏")
	}
	if f.narrator.canceled != 1 {
		t.Errorf("语音取消 %d 次, 期望 1", f.narrator.canceled)
	}

	f.tick(3000)
	if f.intro.StepIndex() != 0 {
		t.Errorf("跳过后 StepIndex = %d, 期望保持 0", f.intro.StepIndex())
	}
	if f.intro.State() != components.IntroSkipped {
		t.Errorf("State = %s, 期望 skipped", f.intro.State())
	}
	if f.intro.PendingCount() != 0 {
		t.Errorf("跳过后仍有 %d 个待执行回调", f.intro.PendingCount())
	}

	player := f.session.Player
	if !player.IsRestrained || player.ControlsEnabled {
		t.Error("跳过不应交还控制，玩家保持被束缚")
	}
	if f.intro.Skip() {
		t.Error("重复 Skip 应返回 false")
	}
}

// TestSkipCancelsPendingWork 跳过后，之前注册的定时器/观察者不再修改 strain、相机位置和字幕
func TestSkipCancelsPendingWork(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{auto: true})
	f.playToGate(t)

	f.input.held[types.InputBreakFree] = true
	f.tick(100)
	if f.gate.Progress() <= 0 {
		t.Fatal("按住挣脱键后进度应上升")
	}

	f.intro.Skip()

	strains := map[ecs.EntityID]float64{}
	for _, id := range f.restraint.Bands() {
		band, _ := f.restraint.band(id)
		strains[id] = band.Strain
	}
	cam := *f.camera.Camera()
	subtitle := f.overlay.subtitle

	// 等待最长的超时（坐起时长 + 台词停顿）
	f.tick(60 * 10)

	for id, want := range strains {
		band, _ := f.restraint.band(id)
		if band.Strain != want {
			t.Errorf("%s strain 在跳过后变化: %.3f → %.3f", band.Limb, want, band.Strain)
		}
	}
	if f.camera.Camera().Position != cam.Position || f.camera.Camera().Target != cam.Target {
		t.Error("跳过后相机位置被修改")
	}
	if f.overlay.subtitle != subtitle {
		t.Errorf("跳过后字幕被修改: %q → %q", subtitle, f.overlay.subtitle)
	}
	if f.restraint.AllBroken() {
		t.Error("跳过后束缚带不应断裂")
	}
}

// TestIntroFullPlaythrough 完整播放：挣脱 → 两句台词 → 坐起 → 交还控制
func TestIntroFullPlaythrough(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{auto: true})
	f.playToGate(t)
	if !f.overlay.promptShown {
		t.Error("挣脱步骤应显示提示")
	}
	if f.session.Player.MeshVisible {
		t.Error("第一人称时应隐藏身体网格")
	}

	f.input.held[types.InputBreakFree] = true
	f.tick(251)
	if !f.restraint.AllBroken() {
		t.Fatal("进度满后束缚带应全部断裂")
	}

	f.tick(60 * 6)
	player := f.session.Player
	if f.intro.State() != components.IntroCompleted {
		t.Fatalf("State = %s, 期望 completed", f.intro.State())
	}
	if !player.ControlsEnabled || player.IsRestrained || player.CutsceneDriven {
		t.Errorf("交还控制后标记错误: %+v", player)
	}
	if player.Authority() != game.AuthorityGameplay {
		t.Errorf("Authority = %s, 期望 gameplay", player.Authority())
	}
	if player.Position != f.cfg.Player.StandPosition {
		t.Errorf("应对齐到标准站立位置, got %+v", player.Position)
	}
	if !f.pointer.captured {
		t.Error("交还控制后应捕获指针")
	}
	if f.overlay.subtitleShown || f.overlay.promptShown {
		t.Error("交还控制后字幕和提示应隐藏")
	}
	if f.camera.Mode() != types.CameraModeFirstPerson {
		t.Errorf("相机模式 = %s, 期望 first-person", f.camera.Mode())
	}

	lines := f.narrator.lines
	if len(lines) != 6 {
		t.Fatalf("应播放 6 句台词, got %d: %v", len(lines), lines)
	}
	if lines[4] != "They snapped! I'm free!" || lines[5] != "Now I need to find a way out of here." {
		t.Errorf("挣脱后的台词顺序错误: %v", lines[4:])
	}
	if !f.hasEvent(EventControlsEnabled) {
		t.Error("应发出 controls-enabled 事件")
	}
	if f.intro.PendingCount() != 0 {
		t.Errorf("完成后仍有 %d 个待执行回调", f.intro.PendingCount())
	}
}

// TestStepsAdvanceInOrder 步骤严格按顺序进入
func TestStepsAdvanceInOrder(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{auto: true})
	f.playToGate(t)

	var entered []int
	for _, ev := range f.events {
		if ev.Kind == EventStepEntered {
			entered = append(entered, ev.StepIndex)
		}
	}
	want := []int{0, 1, 2, 3, 4}
	if len(entered) != len(want) {
		t.Fatalf("进入步骤 %v, 期望 %v", entered, want)
	}
	for i := range want {
		if entered[i] != want[i] {
			t.Fatalf("进入步骤 %v, 期望 %v", entered, want)
		}
	}

	// 最后一步等待输入门，不会自行推进
	f.tick(60 * 20)
	if f.intro.StepIndex() != 4 || f.intro.State() != components.IntroPlaying {
		t.Error("最后一步应等待挣脱输入")
	}
}

// TestSitUpGuard 被束缚且束缚带未断时坐起无效果；断裂后正常执行
func TestSitUpGuard(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{auto: true})
	player := f.session.Player
	before := player.Position
	beforeRot := player.Rotation

	if f.intro.PerformAction(types.ActionSitUp) {
		t.Fatal("未挣断时 sit-up 应被拒绝")
	}
	f.tick(120)
	if player.Position != before || player.Rotation != beforeRot {
		t.Error("被拒绝的 sit-up 不应改变玩家变换")
	}

	f.intro.PerformAction(types.ActionBreakFree)
	if !f.intro.PerformAction(types.ActionSitUp) {
		t.Fatal("挣断后 sit-up 应执行")
	}
	f.tick(60)
	if player.Position == before {
		t.Error("sit-up 执行后玩家应移动")
	}
	if f.camera.Mode() != types.CameraModeThirdPerson {
		t.Errorf("相机模式 = %s, 期望 third-person", f.camera.Mode())
	}
	if !f.camera.IsTracking() {
		t.Error("坐起时应跟踪玩家")
	}
}

// TestSpeechFailureNeverStalls 语音引擎持续失败时开场仍然推进
func TestSpeechFailureNeverStalls(t *testing.T) {
	tests := []struct {
		name   string
		engine SpeechEngine
	}{
		{"没有语音引擎", nil},
		{"引擎总是无法启动", &fakeEngine{failNext: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIntroFixture(nil)
			speech := NewSpeechSystem(f.session.Scheduler, tt.engine, f.session.Settings, f.cfg.Speech, f.cfg.Timing)
			f.intro.sys.Narrator = speech
			f.playToGate(t)

			if f.intro.StepIndex() != 4 {
				t.Errorf("StepIndex = %d, 期望 4", f.intro.StepIndex())
			}
		})
	}
}

// TestBreakFreeDuringPromptLineKeepsNextSubtitle 提示台词未播完就挣脱：新台词的字幕保持显示
func TestBreakFreeDuringPromptLineKeepsNextSubtitle(t *testing.T) {
	f := newIntroFixture(nil)
	engine := &fakeEngine{}
	speech := NewSpeechSystem(f.session.Scheduler, engine, f.session.Settings, f.cfg.Speech, f.cfg.Timing)
	f.intro.sys.Narrator = speech

	prompt := f.cfg.Steps[len(f.cfg.Steps)-1].Line
	// endExcept 结束除 keep 以外所有进行中的语句
	endExcept := func(keep string) {
		active := engine.active
		engine.active = nil
		for _, u := range active {
			if u.Text == keep {
				engine.active = append(engine.active, u)
				continue
			}
			if u.OnEnd != nil {
				u.OnEnd()
			}
		}
	}

	if !f.intro.Start() {
		t.Fatal("Start 应返回 true")
	}
	for i := 0; i < 60*30 && !f.gate.IsActive(); i++ {
		endExcept(prompt)
		f.tick(1)
	}
	if !f.gate.IsActive() {
		t.Fatalf("应推进到挣脱提示, 当前步骤 %d", f.intro.StepIndex())
	}

	f.input.held[types.InputBreakFree] = true
	for i := 0; i < 251; i++ {
		endExcept(prompt)
		f.tick(1)
	}
	if !f.restraint.AllBroken() {
		t.Fatal("进度满后束缚带应全部断裂")
	}
	first := f.cfg.BreakFreeLines[0]
	if !f.overlay.subtitleShown || f.overlay.subtitle != first {
		t.Errorf("挣脱后字幕 = %q (shown=%v), 期望 %q", f.overlay.subtitle, f.overlay.subtitleShown, first)
	}
	if !speech.Speaking() {
		t.Error("挣脱后的台词应正在播放")
	}

	f.input.held[types.InputBreakFree] = false
	for i := 0; i < 60*20 && f.intro.State() != components.IntroCompleted; i++ {
		endExcept("")
		f.tick(1)
	}
	if f.intro.State() != components.IntroCompleted {
		t.Fatalf("State = %s, 期望 completed", f.intro.State())
	}
	if f.overlay.subtitleShown {
		t.Error("交还控制后字幕应隐藏")
	}
}

// TestResumeRestartsFromZero 跳过后重新开始：重新束缚并从第 0 步播放
func TestResumeRestartsFromZero(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{auto: true})
	f.playToGate(t)
	f.input.held[types.InputBreakFree] = true
	f.tick(260)
	f.intro.Skip()
	f.input.held[types.InputBreakFree] = false

	if f.intro.Resume() != true {
		t.Fatal("Resume 应返回 true")
	}
	if !f.hasEvent(EventResumed) {
		t.Error("应发出 resumed 事件")
	}
	if f.intro.State() != components.IntroPlaying || f.intro.StepIndex() != 0 {
		t.Errorf("Resume 后 State=%s StepIndex=%d", f.intro.State(), f.intro.StepIndex())
	}
	if f.restraint.AllBroken() {
		t.Error("Resume 后束缚带应重建")
	}
	if !f.session.Player.IsRestrained {
		t.Error("Resume 后玩家应被束缚")
	}
	if f.intro.Resume() {
		t.Error("播放中 Resume 应返回 false")
	}

	f.tick(600)
	if !f.gate.IsActive() {
		t.Error("重新播放应再次到达挣脱提示")
	}
}

// TestEnableControlsAsUnrestrain enable-controls 可在任何状态下作为出口执行
func TestEnableControlsAsUnrestrain(t *testing.T) {
	f := newIntroFixture(&fakeNarrator{})
	f.intro.PerformAction(types.ActionEnableControls)

	player := f.session.Player
	if !player.ControlsEnabled || player.IsRestrained {
		t.Error("unrestrain 应交还控制")
	}
	if f.intro.State() != components.IntroCompleted {
		t.Errorf("State = %s, 期望 completed", f.intro.State())
	}
	if f.intro.Start() {
		t.Error("完成后 Start 应返回 false")
	}

	f.intro.Restrain()
	if player.ControlsEnabled || !player.IsRestrained || f.pointer.captured {
		t.Error("restrain 应收回控制并释放指针")
	}
	if f.intro.State() != components.IntroIdle {
		t.Errorf("restrain 后 State = %s, 期望 idle", f.intro.State())
	}
	f.tick(10)
	if player.Position != f.cfg.Player.BedPosition {
		t.Error("被束缚时玩家应固定在床上")
	}
}

// TestStruggleShakesBodyOnlyWhenFree 挣扎：被束缚时只抖动束缚带，否则身体也抖动
func TestStruggleShakesBodyOnlyWhenFree(t *testing.T) {
	tests := []struct {
		name       string
		restrained bool
		wantBody   bool
	}{
		{"被束缚", true, false},
		{"未被束缚", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIntroFixture(&fakeNarrator{})
			f.session.Player.IsRestrained = tt.restrained
			f.intro.PerformAction(types.ActionStruggle)

			if !f.restraint.IsShaking() {
				t.Error("束缚带应抖动")
			}
			if f.anim.IsBodyShaking() != tt.wantBody {
				t.Errorf("IsBodyShaking = %v, 期望 %v", f.anim.IsBodyShaking(), tt.wantBody)
			}

			f.tick(1)
			requested := false
			for _, name := range f.animator.played {
				if name == AnimStruggle {
					requested = true
				}
			}
			if requested != tt.wantBody {
				t.Errorf("动画器收到 struggle = %v, 期望 %v (played=%v)", requested, tt.wantBody, f.animator.played)
			}
			if tt.restrained && f.session.Player.Position != f.cfg.Player.BedPosition {
				t.Errorf("被束缚时玩家位置 = %v, 期望固定在床上", f.session.Player.Position)
			}
		})
	}
}

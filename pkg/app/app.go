// Package app 提供游戏应用的核心包装器
//
// 该包将游戏初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/gonewx/cellbreak/pkg/console"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/scenes"
	"github.com/gonewx/cellbreak/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

// 逻辑屏幕尺寸
const (
	ScreenWidth  = 960
	ScreenHeight = 540
)

// AppName gdata 存储使用的应用名
const AppName = "cellbreak"

// DefaultAutosaveSlot 未指定槽位时退出自动保存的槽位
const DefaultAutosaveSlot = "autosave"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Mute 关闭旁白（本次运行有效，不写入设置）
	Mute bool
	// SkipIntro 跳过开场过场，直接进入游戏
	SkipIntro bool
	// Slot 启动时读取的存档槽，同时作为退出时的自动保存槽
	Slot string
	// Level 关卡 ID，0 表示第 1 关
	Level int
}

// App 是游戏应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	scene        *scenes.IntroScene
	console      *console.Console
	input        *EbitenInput
	pointer      *EbitenPointerLock
	verbose      bool

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化游戏应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	// gdata 不可用时设置和存档降级为内存模式
	gdataManager, err := gdata.Open(gdata.Config{AppName: AppName})
	if err != nil {
		log.Printf("[App] Warning: gdata unavailable, saves are in-memory only: %v", err)
		gdataManager = nil
	}

	settings, err := game.NewSettingsManager(gdataManager)
	if err != nil {
		return nil, fmt.Errorf("设置加载失败: %w", err)
	}
	if cfg.Mute {
		settings.SetNarrationEnabled(false)
		log.Printf("[App] Narration muted")
	}
	saves, err := game.NewSaveManager(gdataManager)
	if err != nil {
		return nil, fmt.Errorf("存档加载失败: %w", err)
	}

	// 初始化音频上下文
	audioContext := audio.NewContext(sampleRate)
	sfx := NewSoundEffects(audioContext, settings)

	autosave := cfg.Slot
	if autosave == "" {
		autosave = DefaultAutosaveSlot
	}

	a := &App{
		input:   NewEbitenInput(),
		pointer: &EbitenPointerLock{},
		verbose: cfg.Verbose,
	}

	// 创建场景管理器
	sceneManager := game.NewSceneManager()
	sceneManager.SetSceneFactory(func(levelID int) (game.Scene, error) {
		scene, err := scenes.NewIntroScene(scenes.IntroSceneOptions{
			LevelID:      levelID,
			Session:      game.NewSession(settings),
			Saves:        saves,
			Input:        a.input,
			Pointer:      a.pointer,
			SkipIntro:    cfg.SkipIntro,
			AutosaveSlot: autosave,
			OnRestraintSnap: func(utils.Vec3) {
				sfx.PlaySnap()
			},
		})
		if err != nil {
			return nil, err
		}
		return scene, nil
	})
	a.sceneManager = sceneManager

	level := cfg.Level
	if level <= 0 {
		level = 1
	}
	if err := sceneManager.LoadLevel(level); err != nil {
		return nil, err
	}
	scene, ok := sceneManager.GetCurrentScene().(*scenes.IntroScene)
	if !ok {
		return nil, fmt.Errorf("unexpected scene type %T", sceneManager.GetCurrentScene())
	}
	a.scene = scene
	a.console = console.New(scene, &hudWriter{hud: scene.HUD()})

	if cfg.Slot != "" && saves.Exists(cfg.Slot) {
		if err := scene.LoadSlot(cfg.Slot); err != nil {
			log.Printf("[App] Failed to load slot %s: %v", cfg.Slot, err)
		}
	}

	log.Printf("[App] Starting level %d", level)
	return a, nil
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", ScreenWidth, ScreenHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	// Esc 释放指针，游戏中点击重新捕获
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.pointer.Release()
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && a.scene.Session().Player.ControlsEnabled {
		a.pointer.Capture()
	}

	for _, fk := range FunctionKeyCommands {
		if inpututil.IsKeyJustPressed(fk.Key) {
			_ = a.console.Execute(fk.Command)
		}
	}

	a.input.Sample()
	deltaTime := 1.0 / 60.0
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制游戏画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回游戏的逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

// GetSceneManager 返回场景管理器
// 用于在游戏关闭时保存存档
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// Console 返回开发者控制台
func (a *App) Console() *console.Console {
	return a.console
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}

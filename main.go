package main

import (
	"flag"
	"log"
	"os"

	"github.com/gonewx/cellbreak/pkg/app"
	"github.com/gonewx/cellbreak/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	verboseFlag   = flag.Bool("verbose", false, "Enable verbose logging")
	muteFlag      = flag.Bool("mute", false, "Disable narration for this run")
	skipIntroFlag = flag.Bool("skip-intro", false, "Skip the intro cutscene")
	slotFlag      = flag.String("slot", "", "Save slot to load on start and autosave on exit")
	levelFlag     = flag.Int("level", 1, "Level ID to start")
)

func main() {
	flag.Parse()

	if *verboseFlag {
		log.SetOutput(os.Stdout)
		log.SetFlags(log.Ltime)
	}

	// 初始化嵌入资源（dataFS 在 embed.go 中声明）
	embedded.Init(dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:   *verboseFlag,
		Mute:      *muteFlag,
		SkipIntro: *skipIntroFlag,
		Slot:      *slotFlag,
		Level:     *levelFlag,
	})
	if err != nil {
		log.Fatalf("游戏初始化失败: %v", err)
	}

	ebiten.SetWindowSize(app.ScreenWidth, app.ScreenHeight)
	ebiten.SetWindowTitle("Cell Break")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(gameApp); err != nil {
		log.Fatal(err)
	}

	// 窗口关闭后自动保存
	if !gameApp.GetSceneManager().SaveOnExit() {
		log.Printf("[main] Autosave on exit failed")
	}
}

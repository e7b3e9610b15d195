// intro_console 无窗口运行开场过场，并提供开发者控制台
//
// 用法：
//
//	go run ./cmd/intro_console --ticks 3600
//	echo "status" | go run ./cmd/intro_console --skip-intro
//
// 终端中运行时进入交互模式，逐行执行控制台命令；
// 额外支持 "tick <n>" 推进时钟、"hold"/"release" 切换挣脱键、"quit" 退出。
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/gonewx/cellbreak/internal/tts"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/console"
	"github.com/gonewx/cellbreak/pkg/embedded"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/scenes"
	"github.com/gonewx/cellbreak/pkg/systems"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
	"github.com/gookit/color"
	"golang.org/x/term"
)

const (
	tickDT       = 1.0 / 60.0
	defaultWidth = 80
)

var (
	verboseFlag   = flag.Bool("verbose", false, "Enable verbose logging")
	muteFlag      = flag.Bool("mute", false, "Disable narration")
	skipIntroFlag = flag.Bool("skip-intro", false, "Skip the intro cutscene")
	slotFlag      = flag.String("slot", "", "Save slot to load before running")
	ticksFlag     = flag.Int("ticks", 60*90, "Maximum ticks to run the intro")
	levelFlag     = flag.Int("level", 1, "Level ID")
	dataFlag      = flag.String("data", ".", "Directory containing data/")
	autoHoldFlag  = flag.Bool("auto-hold", true, "Hold the break-free key while the prompt is shown")
)

var (
	narratorStyle = color.Style{color.FgCyan}
	eventStyle    = color.Style{color.FgGray}
	doneStyle     = color.Style{color.FgGreen, color.OpBold}
)

func main() {
	flag.Parse()

	if *verboseFlag {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ltime)
	} else {
		log.SetOutput(io.Discard)
	}

	embedded.Init(os.DirFS(*dataFlag))

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	width := defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}

	settings, _ := game.NewSettingsManager(nil)
	if *muteFlag {
		settings.SetNarrationEnabled(false)
	}
	session := game.NewSession(settings)

	cfg := config.LoadIntroConfigOrDefault(config.DefaultIntroConfigPath)
	engine := tts.NewSimulatedEngine(session.Scheduler, tts.DefaultVoices(), cfg.Speech.WordsPerSecond)
	engine.OnSpeak = func(u *systems.Utterance) {
		if u.Text == cfg.Speech.WarmUpText {
			return
		}
		for _, line := range utils.WrapByWidth("» "+u.Text, width-2) {
			fmt.Println(narratorStyle.Sprint(line))
		}
	}

	input := scenes.NewManualInput()
	scene, err := scenes.NewIntroScene(scenes.IntroSceneOptions{
		LevelID:   *levelFlag,
		Intro:     cfg,
		Session:   session,
		Engine:    engine,
		Input:     input,
		SkipIntro: *skipIntroFlag,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, color.Red.Sprintf("failed to build scene: %v", err))
		os.Exit(1)
	}
	scene.Intro().Subscribe(func(ev systems.IntroEvent) {
		fmt.Println(eventStyle.Sprintf("  [%s step %d]", ev.Kind, ev.StepIndex))
	})

	con := console.New(scene, os.Stdout)
	if *slotFlag != "" {
		_ = con.Execute("load " + *slotFlag)
	}

	ticks := runIntro(scene, input, *ticksFlag, *autoHoldFlag)
	if session.Player.ControlsEnabled {
		fmt.Println(doneStyle.Sprintf("controls enabled after %d ticks (%.1fs)", ticks, float64(ticks)*tickDT))
	} else {
		fmt.Println(color.Yellow.Sprintf("intro still %s after %d ticks", scene.Intro().State(), ticks))
	}

	if interactive {
		fmt.Println(eventStyle.Sprint("type 'help' for commands, 'quit' to exit"))
	}
	repl(scene, input, con, os.Stdin, interactive)
}

// runIntro 推进时钟直到交还控制或达到上限
func runIntro(scene *scenes.IntroScene, input *scenes.ManualInput, maxTicks int, autoHold bool) int {
	ticks := 0
	for ticks < maxTicks && !scene.Session().Player.ControlsEnabled {
		if autoHold {
			input.SetHeld(types.InputBreakFree, scene.Gate().IsActive())
		}
		scene.Update(tickDT)
		ticks++
	}
	input.SetHeld(types.InputBreakFree, false)
	return ticks
}

func repl(scene *scenes.IntroScene, input *scenes.ManualInput, con *console.Console, in io.Reader, interactive bool) {
	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return
		case "tick":
			n := 60
			if len(fields) > 1 {
				if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
					n = v
				}
			}
			for i := 0; i < n; i++ {
				scene.Update(tickDT)
			}
			fmt.Println(eventStyle.Sprintf("advanced %d ticks, gate %.0f%%", n, scene.Gate().Progress()))
		case "hold":
			input.SetHeld(types.InputBreakFree, true)
		case "release":
			input.SetHeld(types.InputBreakFree, false)
		default:
			_ = con.Execute(line)
		}
	}
}

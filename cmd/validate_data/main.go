// validate_data 校验 data/ 下的开场配置、关卡配置和翻译文件
//
// 用法：
//
//	go run ./cmd/validate_data
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/types"
	"gopkg.in/yaml.v3"
)

func main() {
	failed := 0

	intro, err := config.LoadIntroConfig(config.DefaultIntroConfigPath)
	if err != nil {
		fmt.Printf("❌ %s: %v\n", config.DefaultIntroConfigPath, err)
		failed++
	} else {
		fmt.Printf("✅ %s: %d 个步骤, %d 句挣脱后台词\n", config.DefaultIntroConfigPath, len(intro.Steps), len(intro.BreakFreeLines))
		failed += checkActions(intro)
	}

	levels, _ := filepath.Glob("data/levels/*.yaml")
	for _, path := range levels {
		level, err := config.LoadLevelConfig(path)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed++
			continue
		}
		if _, err := game.NewInteractablesFromConfig(level.Interactables); err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Printf("✅ %s: %s, %d 个可交互物体\n", path, level.Name, len(level.Interactables))
	}

	locales, _ := filepath.Glob("data/locale/*.po")
	for _, path := range locales {
		lang := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		strs, err := game.NewNarrationStrings(lang)
		if err != nil {
			fmt.Printf("❌ %s: %v\n", path, err)
			failed++
			continue
		}
		if intro != nil {
			failed += checkTranslations(path, strs, intro)
		}
	}

	if failed > 0 {
		fmt.Printf("❌ 共 %d 个问题\n", failed)
		os.Exit(1)
	}
}

// checkActions 开场必须包含 prompt-break-free，且步骤表不能直接使用 enable-controls
func checkActions(intro *config.IntroConfig) int {
	problems := 0
	hasPrompt := false
	for _, step := range intro.Steps {
		if step.Action == types.ActionPromptBreakFree {
			hasPrompt = true
		}
	}
	if !hasPrompt {
		fmt.Printf("❌ 开场缺少 %s 步骤\n", types.ActionPromptBreakFree)
		problems++
	}

	// 交还控制由挣脱后的台词链触发，步骤表中出现会提前结束开场
	for i, step := range intro.Steps {
		if step.Action == types.ActionEnableControls {
			fmt.Printf("❌ 第 %d 步不应直接使用 %s\n", i, types.ActionEnableControls)
			problems++
		}
	}

	if out, err := yaml.Marshal(intro.Timing); err == nil {
		fmt.Printf("   timing:\n%s", indent(string(out)))
	}
	return problems
}

// checkTranslations 每句台词都应有翻译
func checkTranslations(path string, strs *game.NarrationStrings, intro *config.IntroConfig) int {
	missing := 0
	lines := append([]string{}, intro.BreakFreeLines...)
	for _, step := range intro.Steps {
		if step.HasLine() {
			lines = append(lines, step.Line)
		}
	}
	for _, line := range lines {
		if strs.Get(line) == line {
			fmt.Printf("❌ %s: 缺少翻译 %q\n", path, line)
			missing++
		}
	}
	if missing == 0 {
		fmt.Printf("✅ %s: %d 句台词均已翻译\n", path, len(lines))
	}
	return missing
}

func indent(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		b.WriteString("     " + line + "\n")
	}
	return b.String()
}

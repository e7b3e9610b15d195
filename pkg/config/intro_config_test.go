package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gonewx/cellbreak/pkg/types"
)

// TestDefaultIntroConfig 测试内置默认配置
func TestDefaultIntroConfig(t *testing.T) {
	cfg := DefaultIntroConfig()

	if err := validateIntroConfig(cfg); err != nil {
		t.Fatalf("默认配置应通过校验: %v", err)
	}
	if cfg.Steps[0].Line != "Ugh... where am I?" {
		t.Errorf("第一步台词 = %q", cfg.Steps[0].Line)
	}
	if last := cfg.Steps[len(cfg.Steps)-1]; last.Action != types.ActionPromptBreakFree {
		t.Errorf("最后一步动作 = %q, 期望 prompt-break-free", last.Action)
	}
	if len(cfg.BreakFreeLines) != 2 {
		t.Errorf("期望 2 句挣脱台词，实际 %d", len(cfg.BreakFreeLines))
	}

	// 目标按住时长约 4~5 秒（60 tick/s）
	seconds := 100 / cfg.Gate.FillPerTick / 60
	if seconds < 4 || seconds > 5 {
		t.Errorf("按住时长 = %.2fs, 期望 4~5s", seconds)
	}
}

// TestParseIntroConfig 测试 YAML 解析与默认值补全
func TestParseIntroConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, cfg *IntroConfig)
	}{
		{
			name: "最小配置补全默认值",
			yaml: `steps:
  - line: "Hello?"
    action: wake
  - delayMs: 800
`,
			check: func(t *testing.T, cfg *IntroConfig) {
				if cfg.Timing.PostLinePauseMs != 500 {
					t.Errorf("PostLinePauseMs = %d, 期望 500", cfg.Timing.PostLinePauseMs)
				}
				if cfg.Restraint.Segments != 12 {
					t.Errorf("Segments = %d, 期望 12", cfg.Restraint.Segments)
				}
				if cfg.Steps[1].DelayMs != 800 || cfg.Steps[1].HasLine() {
					t.Errorf("第二步解析错误: %+v", cfg.Steps[1])
				}
				if cfg.BoneFor(types.LimbRightAnkle) != "foot.R" {
					t.Errorf("BoneFor(right-ankle) = %q", cfg.BoneFor(types.LimbRightAnkle))
				}
			},
		},
		{
			name: "自定义输入门速率",
			yaml: `steps: [{line: "x"}]
gate:
  fillPerTick: 1.0
  drainPerTick: 0.5
`,
			check: func(t *testing.T, cfg *IntroConfig) {
				if cfg.Gate.FillPerTick != 1.0 || cfg.Gate.DrainPerTick != 0.5 {
					t.Errorf("Gate = %+v", cfg.Gate)
				}
			},
		},
		{name: "空步骤表", yaml: "steps: []\n", wantErr: true},
		{name: "未知动作", yaml: "steps: [{action: dance}]\n", wantErr: true},
		{name: "负延迟", yaml: "steps: [{delayMs: -1}]\n", wantErr: true},
		{name: "YAML 语法错误", yaml: "steps: [\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseIntroConfig([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIntroConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil && cfg != nil {
				tt.check(t, cfg)
			}
		})
	}
}

// TestLoadIntroConfigFromDisk 测试从磁盘加载
func TestLoadIntroConfigFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.yaml")
	if err := os.WriteFile(path, []byte("steps: [{line: \"Hi\", action: wake}]\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	cfg, err := LoadIntroConfig(path)
	if err != nil {
		t.Fatalf("LoadIntroConfig() failed: %v", err)
	}
	if cfg.Steps[0].Action != types.ActionWake {
		t.Errorf("Action = %q, 期望 wake", cfg.Steps[0].Action)
	}

	// 文件缺失时回退到默认配置
	fallback := LoadIntroConfigOrDefault(filepath.Join(dir, "missing.yaml"))
	if len(fallback.Steps) != len(DefaultIntroConfig().Steps) {
		t.Error("缺失文件应回退到默认配置")
	}
}

// TestShippedIntroConfig 测试仓库自带的 data/intro.yaml
func TestShippedIntroConfig(t *testing.T) {
	path := filepath.Join("..", "..", "data", "intro.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Skip("data/intro.yaml not found")
	}

	cfg, err := LoadIntroConfig(path)
	if err != nil {
		t.Fatalf("LoadIntroConfig(%s) failed: %v", path, err)
	}
	def := DefaultIntroConfig()
	if len(cfg.Steps) != len(def.Steps) {
		t.Errorf("步骤数 = %d, 期望与默认配置一致 (%d)", len(cfg.Steps), len(def.Steps))
	}
}

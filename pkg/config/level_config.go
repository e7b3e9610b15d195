package config

import (
	"fmt"
	"os"

	"github.com/gonewx/cellbreak/pkg/embedded"
	"github.com/gonewx/cellbreak/pkg/utils"
	"gopkg.in/yaml.v3"
)

// LevelConfig 关卡配置数据结构
// 定义关卡的基本信息、出生点和可交互物体
type LevelConfig struct {
	ID            int                 `yaml:"id"`            // 关卡ID，从 1 开始
	Name          string              `yaml:"name"`          // 关卡名称，如 "Cell Block"
	Objective     string              `yaml:"objective"`     // 交还控制后显示的目标
	PlayerSpawn   utils.Vec3          `yaml:"playerSpawn"`   // 非开场进入时的出生点
	HasIntro      bool                `yaml:"hasIntro"`      // 是否播放开场过场
	Interactables []InteractableSpawn `yaml:"interactables"` // 可交互物体
}

// InteractableSpawn 可交互物体配置
type InteractableSpawn struct {
	ID       string     `yaml:"id"`       // 唯一标识，如 "cell_door"
	Kind     string     `yaml:"kind"`     // door, keycard, weapon, ammo, bars, terminal
	Position utils.Vec3 `yaml:"position"` // 世界坐标
	Weapon   string     `yaml:"weapon"`   // weapon/ammo 使用
	Amount   int        `yaml:"amount"`   // ammo 数量
	Code     string     `yaml:"code"`     // terminal 密码
}

// LevelConfigPath 返回关卡配置的嵌入路径
func LevelConfigPath(id int) string {
	return fmt.Sprintf("data/levels/level_%d.yaml", id)
}

// LoadLevelConfig 从YAML文件加载关卡配置
// 参数：
//
//	path - 关卡配置文件的路径（嵌入资源优先，其次磁盘）
//
// 返回：
//
//	*LevelConfig - 解析后的关卡配置对象
//	error - 如果文件读取或解析失败，返回错误信息
func LoadLevelConfig(path string) (*LevelConfig, error) {
	var (
		data []byte
		err  error
	)
	if embedded.Exists(path) {
		data, err = embedded.ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read level config file %s: %w", path, err)
	}

	var levelConfig LevelConfig
	if err := yaml.Unmarshal(data, &levelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse level config YAML from %s: %w", path, err)
	}

	applyLevelDefaults(&levelConfig)

	if err := validateLevelConfig(&levelConfig); err != nil {
		return nil, fmt.Errorf("invalid level config in %s: %w", path, err)
	}

	return &levelConfig, nil
}

// applyLevelDefaults 为 LevelConfig 中缺失的可选字段设置默认值
func applyLevelDefaults(cfg *LevelConfig) {
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("Level %d", cfg.ID)
	}
	for i := range cfg.Interactables {
		it := &cfg.Interactables[i]
		if it.Kind == "ammo" && it.Amount == 0 {
			it.Amount = 12
		}
	}
}

// validateLevelConfig 验证关卡配置的完整性和合法性
func validateLevelConfig(cfg *LevelConfig) error {
	if cfg.ID <= 0 {
		return fmt.Errorf("level id must be positive, got %d", cfg.ID)
	}

	seen := make(map[string]bool, len(cfg.Interactables))
	for i, it := range cfg.Interactables {
		if it.ID == "" {
			return fmt.Errorf("interactable %d: id is required", i)
		}
		if seen[it.ID] {
			return fmt.Errorf("interactable %d: duplicate id %q", i, it.ID)
		}
		seen[it.ID] = true

		switch it.Kind {
		case "door", "keycard", "bars":
		case "weapon", "ammo":
			if it.Weapon == "" {
				return fmt.Errorf("interactable %s: weapon is required for kind %s", it.ID, it.Kind)
			}
		case "terminal":
			if it.Code == "" {
				return fmt.Errorf("interactable %s: terminal code is required", it.ID)
			}
		default:
			return fmt.Errorf("interactable %s: unknown kind %q", it.ID, it.Kind)
		}
	}
	return nil
}

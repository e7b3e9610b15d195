package config

import (
	"fmt"
	"log"
	"os"

	"github.com/gonewx/cellbreak/pkg/embedded"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
	"gopkg.in/yaml.v3"
)

// DefaultIntroConfigPath 开场配置的默认路径（嵌入资源）
const DefaultIntroConfigPath = "data/intro.yaml"

// IntroConfig 开场过场动画配置
// 包含步骤表、挣脱后的台词、时间常量、输入门速率、束缚带参数、骨骼映射和相机/玩家姿态
type IntroConfig struct {
	Steps          []IntroStep       `yaml:"steps"`          // 步骤表（严格按顺序推进）
	BreakFreeLines []string          `yaml:"breakFreeLines"` // 挣脱后依次播放的两句台词
	Timing         TimingConfig      `yaml:"timing"`         // 时间常量
	Gate           GateConfig        `yaml:"gate"`           // 挣脱输入门
	Restraint      RestraintConfig   `yaml:"restraint"`      // 束缚带形变参数
	Bones          map[string]string `yaml:"bones"`          // 肢体 -> 骨骼名，如 "left-wrist": "hand.L"
	Camera         CameraConfig      `yaml:"camera"`         // 相机姿态
	Player         PlayerPoseConfig  `yaml:"player"`         // 玩家姿态
	Speech         SpeechConfig      `yaml:"speech"`         // 旁白参数
}

// IntroStep 单个脚本节拍
// 有台词时推进取决于旁白完成，DelayMs 仅用于无台词步骤
type IntroStep struct {
	DelayMs int             `yaml:"delayMs"`
	Line    string          `yaml:"line"`
	Action  types.ActionTag `yaml:"action"`
}

// HasLine 是否包含旁白
func (s IntroStep) HasLine() bool {
	return s.Line != ""
}

// TimingConfig 时间常量（毫秒）
type TimingConfig struct {
	PostLinePauseMs  int `yaml:"postLinePauseMs"`  // 台词结束到推进的停顿
	SitUpDurationMs  int `yaml:"sitUpDurationMs"`  // 坐起动画时长（之后交还控制）
	WarmUpFallbackMs int `yaml:"warmUpFallbackMs"` // 预热语句超时回退
	SettleDelayMs    int `yaml:"settleDelayMs"`    // 预热结束后的稳定延迟
	NudgeIntervalMs  int `yaml:"nudgeIntervalMs"`  // 长句防截断的暂停/恢复间隔
	SparkLifetimeMs  int `yaml:"sparkLifetimeMs"`  // 火花粒子寿命
}

// GateConfig 挣脱输入门参数
// 填充/衰减速率以 60 tick/s 计，默认 0.4/0.15 对应约 4.2 秒按住
type GateConfig struct {
	FillPerTick  float64 `yaml:"fillPerTick"`
	DrainPerTick float64 `yaml:"drainPerTick"`
	MaxShake     float64 `yaml:"maxShake"` // progress=100 时的相机抖动幅度（世界单位）
}

// RestraintConfig 束缚带形变参数
type RestraintConfig struct {
	Segments          int     `yaml:"segments"`          // 每条束缚带的段数
	Radius            float64 `yaml:"radius"`            // 环半径
	MaxBendDeg        float64 `yaml:"maxBendDeg"`        // strain=1 时中段最大弯曲角
	JitterDeg         float64 `yaml:"jitterDeg"`         // 每段随机抖动幅度
	StretchGain       float64 `yaml:"stretchGain"`       // strain=1 时拉伸增量
	CompressGain      float64 `yaml:"compressGain"`      // strain=1 时压缩量
	HeatThreshold     float64 `yaml:"heatThreshold"`     // 开始发热的 strain 阈值
	BandStaggerMs     int     `yaml:"bandStaggerMs"`     // 束缚带之间的错开
	SegmentStaggerMs  int     `yaml:"segmentStaggerMs"`  // 段之间的错开
	SnapDurationMs    int     `yaml:"snapDurationMs"`    // 断裂甩动阶段时长
	FallDurationMs    int     `yaml:"fallDurationMs"`    // 下落阶段时长
	SnapBendDeg       float64 `yaml:"snapBendDeg"`       // 断裂瞬间的猛烈弯曲
	FallDistance      float64 `yaml:"fallDistance"`      // 下落距离
	ScatterRadius     float64 `yaml:"scatterRadius"`     // 水平散开半径
	ShakeAmplitudeDeg float64 `yaml:"shakeAmplitudeDeg"` // 挣扎抖动幅度
	ShakeFrequencyHz  float64 `yaml:"shakeFrequencyHz"`  // 挣扎抖动频率
	SparkCount        int     `yaml:"sparkCount"`        // 每次断裂的火花数量
	ModelPath         string  `yaml:"modelPath"`         // 手铐模型，加载失败时使用程序化圆环

	RestPositions map[string]utils.Vec3 `yaml:"restPositions"` // 骨骼可用前的初始位置
}

// CameraConfig 相机姿态配置
type CameraConfig struct {
	CeilingPosition      utils.Vec3   `yaml:"ceilingPosition"`
	CeilingTarget        utils.Vec3   `yaml:"ceilingTarget"`
	WakePositions        []utils.Vec3 `yaml:"wakePositions"`
	WakeTicks            int          `yaml:"wakeTicks"`
	FirstPersonPosition  utils.Vec3   `yaml:"firstPersonPosition"`
	FirstPersonLookAt    utils.Vec3   `yaml:"firstPersonLookAt"`
	FirstPersonTicks     int          `yaml:"firstPersonTicks"`
	ThirdPersonPositions []utils.Vec3 `yaml:"thirdPersonPositions"`
	SitUpTicks           int          `yaml:"sitUpTicks"`
	TrackerMs            int          `yaml:"trackerMs"`      // 第三人称跟踪观察者时长
	TrackSmoothing       float64      `yaml:"trackSmoothing"` // 每 tick 朝目标插值的比例
	DefaultYaw           float64      `yaml:"defaultYaw"`
	DefaultPitch         float64      `yaml:"defaultPitch"`
}

// PlayerPoseConfig 玩家姿态
type PlayerPoseConfig struct {
	BedPosition   utils.Vec3 `yaml:"bedPosition"`   // 躺在床上时的位置
	BedRotation   utils.Vec3 `yaml:"bedRotation"`   // 躺姿旋转（弧度，X=俯仰）
	StandPosition utils.Vec3 `yaml:"standPosition"` // 交还控制时的标准站立位置
	StandYaw      float64    `yaml:"standYaw"`      // 标准站立朝向
	HeadHeight    float64    `yaml:"headHeight"`    // 站立时头部相对位置的高度
	MoveSpeed     float64    `yaml:"moveSpeed"`     // 行走速度（单位/秒）
}

// SpeechConfig 旁白参数
type SpeechConfig struct {
	WarmUpText         string  `yaml:"warmUpText"`
	WarmUpVolume       float64 `yaml:"warmUpVolume"`
	PreferredLang      string  `yaml:"preferredLang"`      // 未配置声音时优先的语言前缀
	SafetyMultiplier   float64 `yaml:"safetyMultiplier"`   // 估计时长倍数
	SafetyExtraMs      int     `yaml:"safetyExtraMs"`      // 额外宽限
	WordsPerSecond     float64 `yaml:"wordsPerSecond"`     // 时长估计
	BreakerMaxFailures uint32  `yaml:"breakerMaxFailures"` // 连续失败多少次熔断
	BreakerOpenMs      int     `yaml:"breakerOpenMs"`      // 熔断持续时间
}

// LoadIntroConfig 加载开场配置
// 参数：
//
//	path - 配置路径。以 "data/" 开头且嵌入资源已初始化时从嵌入资源读取，否则从磁盘读取
//
// 返回：
//
//	*IntroConfig - 解析并补全默认值后的配置
//	error - 读取、解析或校验失败
func LoadIntroConfig(path string) (*IntroConfig, error) {
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
		return nil, fmt.Errorf("failed to read intro config %s: %w", path, err)
	}

	cfg, err := ParseIntroConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid intro config in %s: %w", path, err)
	}
	return cfg, nil
}

// LoadIntroConfigOrDefault 加载开场配置，失败时记录日志并返回默认配置
func LoadIntroConfigOrDefault(path string) *IntroConfig {
	cfg, err := LoadIntroConfig(path)
	if err != nil {
		log.Printf("[IntroConfig] Warning: %v (using built-in defaults)", err)
		return DefaultIntroConfig()
	}
	return cfg
}

// ParseIntroConfig 从 YAML 字节解析开场配置
func ParseIntroConfig(data []byte) (*IntroConfig, error) {
	var cfg IntroConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse intro config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateIntroConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultIntroConfig 返回内置默认配置（与 data/intro.yaml 一致）
func DefaultIntroConfig() *IntroConfig {
	cfg := &IntroConfig{
		Steps: []IntroStep{
			{Line: "Ugh... where am I?", Action: types.ActionWake},
			{Line: "I can't move. Something is holding me down.", Action: types.ActionStruggle},
			{DelayMs: 1200, Action: types.ActionStruggle},
			{Line: "Restraints. On my wrists and ankles.", Action: types.ActionSwitchToFirstPerson},
			{Line: "If I pull hard enough, maybe they will give.", Action: types.ActionPromptBreakFree},
		},
		BreakFreeLines: []string{
			"They snapped! I'm free!",
			"Now I need to find a way out of here.",
		},
	}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults 为缺失的可选字段设置默认值
func applyDefaults(cfg *IntroConfig) {
	t := &cfg.Timing
	setIntDefault(&t.PostLinePauseMs, 500)
	setIntDefault(&t.SitUpDurationMs, 3000)
	setIntDefault(&t.WarmUpFallbackMs, 500)
	setIntDefault(&t.SettleDelayMs, 350)
	setIntDefault(&t.NudgeIntervalMs, 10000)
	setIntDefault(&t.SparkLifetimeMs, 1000)

	g := &cfg.Gate
	setFloatDefault(&g.FillPerTick, 0.4)
	setFloatDefault(&g.DrainPerTick, 0.15)
	setFloatDefault(&g.MaxShake, 0.03)

	r := &cfg.Restraint
	setIntDefault(&r.Segments, 12)
	setFloatDefault(&r.Radius, 0.06)
	setFloatDefault(&r.MaxBendDeg, 35)
	setFloatDefault(&r.JitterDeg, 4)
	setFloatDefault(&r.StretchGain, 0.25)
	setFloatDefault(&r.CompressGain, 0.15)
	setFloatDefault(&r.HeatThreshold, 0.5)
	setIntDefault(&r.BandStaggerMs, 120)
	setIntDefault(&r.SegmentStaggerMs, 60)
	setIntDefault(&r.SnapDurationMs, 250)
	setIntDefault(&r.FallDurationMs, 600)
	setFloatDefault(&r.SnapBendDeg, 110)
	setFloatDefault(&r.FallDistance, 0.6)
	setFloatDefault(&r.ScatterRadius, 0.15)
	setFloatDefault(&r.ShakeAmplitudeDeg, 6)
	setFloatDefault(&r.ShakeFrequencyHz, 7)
	setIntDefault(&r.SparkCount, 16)
	if r.RestPositions == nil {
		r.RestPositions = map[string]utils.Vec3{
			types.LimbLeftWrist.String():  utils.V3(-0.35, 0.62, -0.1),
			types.LimbRightWrist.String(): utils.V3(0.35, 0.62, -0.1),
			types.LimbLeftAnkle.String():  utils.V3(-0.15, 0.62, 0.85),
			types.LimbRightAnkle.String(): utils.V3(0.15, 0.62, 0.85),
		}
	}

	if cfg.Bones == nil {
		cfg.Bones = map[string]string{
			types.LimbLeftWrist.String():  "hand.L",
			types.LimbRightWrist.String(): "hand.R",
			types.LimbLeftAnkle.String():  "foot.L",
			types.LimbRightAnkle.String(): "foot.R",
		}
	}

	c := &cfg.Camera
	if c.CeilingPosition == (utils.Vec3{}) {
		c.CeilingPosition = utils.V3(0, 2.8, 0.3)
	}
	if c.CeilingTarget == (utils.Vec3{}) {
		c.CeilingTarget = utils.V3(0, 0.6, 0)
	}
	if len(c.WakePositions) == 0 {
		c.WakePositions = []utils.Vec3{utils.V3(0.4, 2.2, -0.2), utils.V3(0.3, 1.6, -0.6)}
	}
	setIntDefault(&c.WakeTicks, 180)
	if c.FirstPersonPosition == (utils.Vec3{}) {
		c.FirstPersonPosition = utils.V3(0, 0.75, -0.95)
	}
	if c.FirstPersonLookAt == (utils.Vec3{}) {
		c.FirstPersonLookAt = utils.V3(0, 0.62, 0.4)
	}
	setIntDefault(&c.FirstPersonTicks, 90)
	if len(c.ThirdPersonPositions) == 0 {
		c.ThirdPersonPositions = []utils.Vec3{utils.V3(1.6, 1.7, 0.4), utils.V3(1.0, 1.9, 1.6)}
	}
	setIntDefault(&c.SitUpTicks, 200)
	setIntDefault(&c.TrackerMs, 3500)
	setFloatDefault(&c.TrackSmoothing, 0.12)

	p := &cfg.Player
	if p.BedPosition == (utils.Vec3{}) {
		p.BedPosition = utils.V3(0, 0.6, 0)
	}
	if p.BedRotation == (utils.Vec3{}) {
		p.BedRotation = utils.V3(-1.5707963267948966, 0, 0)
	}
	if p.StandPosition == (utils.Vec3{}) {
		p.StandPosition = utils.V3(1.0, 0.9, -0.8)
	}
	setFloatDefault(&p.HeadHeight, 0.75)
	setFloatDefault(&p.MoveSpeed, 2.0)

	s := &cfg.Speech
	if s.WarmUpText == "" {
		s.WarmUpText = "."
	}
	setFloatDefault(&s.WarmUpVolume, 0.01)
	if s.PreferredLang == "" {
		s.PreferredLang = "en"
	}
	setFloatDefault(&s.SafetyMultiplier, 3)
	setIntDefault(&s.SafetyExtraMs, 5000)
	setFloatDefault(&s.WordsPerSecond, 2.5)
	if s.BreakerMaxFailures == 0 {
		s.BreakerMaxFailures = 3
	}
	setIntDefault(&s.BreakerOpenMs, 30000)
}

func setIntDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func setFloatDefault(v *float64, def float64) {
	if *v == 0 {
		*v = def
	}
}

// validateIntroConfig 校验开场配置的完整性和合法性
func validateIntroConfig(cfg *IntroConfig) error {
	if len(cfg.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	for i, step := range cfg.Steps {
		if step.DelayMs < 0 {
			return fmt.Errorf("step %d: delayMs cannot be negative", i)
		}
		if _, err := types.ParseActionTag(string(step.Action)); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	if cfg.Gate.FillPerTick <= 0 || cfg.Gate.DrainPerTick < 0 {
		return fmt.Errorf("gate rates must be positive (fill=%v, drain=%v)", cfg.Gate.FillPerTick, cfg.Gate.DrainPerTick)
	}

	if cfg.Restraint.Segments < 2 {
		return fmt.Errorf("restraint needs at least 2 segments, got %d", cfg.Restraint.Segments)
	}
	if cfg.Restraint.HeatThreshold <= 0 || cfg.Restraint.HeatThreshold >= 1 {
		return fmt.Errorf("restraint heatThreshold must be in (0,1), got %v", cfg.Restraint.HeatThreshold)
	}

	for _, limb := range types.AllLimbs() {
		if _, ok := cfg.Restraint.RestPositions[limb.String()]; !ok {
			return fmt.Errorf("restraint restPositions missing limb %s", limb)
		}
	}

	return nil
}

// BoneFor 返回肢体对应的骨骼名（未配置时返回空字符串）
func (c *IntroConfig) BoneFor(limb types.Limb) string {
	return c.Bones[limb.String()]
}

// RestPositionFor 返回肢体束缚带的初始位置
func (c *IntroConfig) RestPositionFor(limb types.Limb) utils.Vec3 {
	return c.Restraint.RestPositions[limb.String()]
}

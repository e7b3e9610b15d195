package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// GameSettings 全局游戏设置
// 旁白与显示相关设置，不随存档槽变化
type GameSettings struct {
	// 旁白设置
	NarrationEnabled bool    `yaml:"narrationEnabled"` // 旁白开关（关闭时台词立即完成，无语音）
	VoiceName        string  `yaml:"voiceName"`        // 首选声音，空表示自动选择
	SpeechRate       float64 `yaml:"speechRate"`       // 基础语速 0.5 ~ 2.0
	SpeechPitch      float64 `yaml:"speechPitch"`      // 基础音调 0.5 ~ 2.0
	SpeechVolume     float64 `yaml:"speechVolume"`     // 旁白音量 0.0 ~ 1.0
	Language         string  `yaml:"language"`         // 字幕语言，如 "en"、"zh_CN"

	// 音效设置
	SoundEnabled bool    `yaml:"soundEnabled"` // 音效开关（束缚带断裂等）
	SoundVolume  float64 `yaml:"soundVolume"`  // 音效音量 0.0 ~ 1.0

	// 显示设置
	Subtitles  bool `yaml:"subtitles"`  // 是否显示字幕
	Fullscreen bool `yaml:"fullscreen"` // 启动时是否全屏
}

// DefaultSettings 返回默认设置
func DefaultSettings() *GameSettings {
	return &GameSettings{
		NarrationEnabled: true,
		VoiceName:        "",
		SpeechRate:       1.0,
		SpeechPitch:      1.0,
		SpeechVolume:     1.0,
		Language:         "en",
		SoundEnabled:     true,
		SoundVolume:      0.8,
		Subtitles:        true,
		Fullscreen:       false,
	}
}

// SettingsManager 设置管理器
// 负责游戏设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *GameSettings  // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "global"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 如果加载设置失败返回错误（不影响创建）
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	// 尝试加载已保存的设置
	if err := sm.Load(); err != nil {
		// 加载失败不是致命错误，使用默认设置
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置
//
// 返回：
//   - error: 如果反序列化失败返回错误
func (sm *SettingsManager) Load() error {
	// 降级模式：无法持久化，使用默认设置
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	// 检查设置文件是否存在
	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		// 文件不存在，使用默认设置
		sm.settings = DefaultSettings()
		return nil
	}

	// 从 gdata 加载数据
	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		// 文件存在但加载失败，使用默认设置
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// 反序列化 YAML 数据
	var loadedSettings GameSettings
	if err := yaml.Unmarshal(data, &loadedSettings); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	if loadedSettings.SpeechRate == 0 {
		loadedSettings.SpeechRate = 1.0
	}
	if loadedSettings.SpeechPitch == 0 {
		loadedSettings.SpeechPitch = 1.0
	}
	sm.settings = &loadedSettings
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
//
// 返回：
//   - error: 如果序列化或保存失败返回错误
func (sm *SettingsManager) Save() error {
	// 降级模式：无法持久化，但不报错
	if sm.gdataManager == nil {
		return nil
	}

	// 序列化设置为 YAML
	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// 保存到 gdata
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
//
// 返回：
//   - *GameSettings: 当前设置实例
func (sm *SettingsManager) GetSettings() *GameSettings {
	return sm.settings
}

// SetNarrationEnabled 设置旁白开关
//
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetNarrationEnabled(enabled bool) {
	sm.settings.NarrationEnabled = enabled
}

// SetVoiceName 设置首选声音
func (sm *SettingsManager) SetVoiceName(name string) {
	sm.settings.VoiceName = name
}

// SetSpeechRate 设置基础语速
//
// 语速会被限制在 0.5 ~ 2.0 范围内
func (sm *SettingsManager) SetSpeechRate(rate float64) {
	sm.settings.SpeechRate = clampMultiplier(rate)
}

// SetSpeechPitch 设置基础音调
//
// 音调会被限制在 0.5 ~ 2.0 范围内
func (sm *SettingsManager) SetSpeechPitch(pitch float64) {
	sm.settings.SpeechPitch = clampMultiplier(pitch)
}

// SetSpeechVolume 设置旁白音量
//
// 音量值会被限制在 0.0 ~ 1.0 范围内
func (sm *SettingsManager) SetSpeechVolume(volume float64) {
	sm.settings.SpeechVolume = clampVolume(volume)
}

// SetSoundEnabled 设置音效开关
func (sm *SettingsManager) SetSoundEnabled(enabled bool) {
	sm.settings.SoundEnabled = enabled
}

// SetSoundVolume 设置音效音量（限制在 0.0 ~ 1.0）
func (sm *SettingsManager) SetSoundVolume(volume float64) {
	sm.settings.SoundVolume = clampVolume(volume)
}

// SetLanguage 设置字幕语言
func (sm *SettingsManager) SetLanguage(lang string) {
	sm.settings.Language = lang
}

// SetSubtitles 设置字幕开关
func (sm *SettingsManager) SetSubtitles(enabled bool) {
	sm.settings.Subtitles = enabled
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// clampMultiplier 将语速/音调倍率限制在 0.5 ~ 2.0 范围内
func clampMultiplier(v float64) float64 {
	if v < 0.5 {
		return 0.5
	}
	if v > 2.0 {
		return 2.0
	}
	return v
}

// clampVolume 将音量值限制在 0.0 ~ 1.0 范围内
func clampVolume(volume float64) float64 {
	if volume < 0.0 {
		return 0.0
	}
	if volume > 1.0 {
		return 1.0
	}
	return volume
}

package game

import (
	"fmt"
	"log"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

// LevelState 关卡进度摘要（写入存档）
type LevelState struct {
	KeycardHeld  bool
	DoorUnlocked bool
	BarsBent     int
}

// LevelLoader 关卡加载钩子，由场景层提供
type LevelLoader func(levelID int) error

// Session 一局游戏的上下文
// 持有玩家状态、关卡进度、调度器和设置，替代全局单例
type Session struct {
	Player    *PlayerState
	LevelID   int
	Level     LevelState
	Objective string
	Paused    bool

	Scheduler *Scheduler
	Settings  *SettingsManager

	Interactables []*Interactable

	used        mapset.Set[string]
	levelLoader LevelLoader
}

// NewSession 创建新会话
//
// 参数：
//   - settings: 设置管理器，可为 nil（使用默认设置的内存管理器）
func NewSession(settings *SettingsManager) *Session {
	if settings == nil {
		settings, _ = NewSettingsManager(nil)
	}
	return &Session{
		Player:    NewPlayerState(),
		Scheduler: NewScheduler(),
		Settings:  settings,
		used:      mapset.New[string](),
	}
}

// SetLevelLoader 设置关卡加载钩子
func (s *Session) SetLevelLoader(loader LevelLoader) {
	s.levelLoader = loader
}

// LoadLevel 加载关卡并重置关卡进度
func (s *Session) LoadLevel(levelID int) error {
	if levelID <= 0 {
		return fmt.Errorf("invalid level id %d", levelID)
	}

	if s.levelLoader != nil {
		if err := s.levelLoader(levelID); err != nil {
			return fmt.Errorf("failed to load level %d: %w", levelID, err)
		}
	}

	s.LevelID = levelID
	s.Level = LevelState{}
	s.used = mapset.New[string]()
	log.Printf("[Session] Level %d loaded", levelID)
	return nil
}

// SetInteractables 替换当前关卡的可交互物体
func (s *Session) SetInteractables(items []*Interactable) {
	s.Interactables = items
}

// FindInteractable 按 ID 查找可交互物体
func (s *Session) FindInteractable(id string) (*Interactable, bool) {
	for _, it := range s.Interactables {
		if it.ID == id {
			return it, true
		}
	}
	return nil, false
}

// MarkUsed 标记一次性物体已使用
func (s *Session) MarkUsed(id string) {
	s.used.Put(id)
}

// IsUsed 一次性物体是否已使用
func (s *Session) IsUsed(id string) bool {
	return s.used.Has(id)
}

// UsedCount 已使用的一次性物体数量
func (s *Session) UsedCount() int {
	return s.used.Size()
}

// UsedIDs 返回已使用物体的 ID（排序后）
func (s *Session) UsedIDs() []string {
	ids := make([]string, 0, s.used.Size())
	s.used.Each(func(id string) {
		ids = append(ids, id)
	})
	sort.Strings(ids)
	return ids
}

// SetUsed 用给定 ID 替换已使用集合
func (s *Session) SetUsed(ids []string) {
	s.used = mapset.New[string]()
	for _, id := range ids {
		s.used.Put(id)
	}
}

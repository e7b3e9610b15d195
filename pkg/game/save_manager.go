package game

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"time"

	"github.com/gonewx/cellbreak/pkg/utils"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// SaveBlob 存档数据（扁平 JSON 键值）
//
// 示例：
//
//	{"level":1,"x":1,"y":0.9,"z":-0.8,"health":40,"weapons":["pistol"], ...}
type SaveBlob struct {
	Level int     `json:"level"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Yaw   float64 `json:"yaw"`

	Health   int `json:"health"`
	Armor    int `json:"armor"`
	Strength int `json:"strength"`

	Weapons []string        `json:"weapons"`
	Ammo    map[string]int  `json:"ammo"`
	Flags   map[string]bool `json:"flags"`

	KeycardHeld  bool     `json:"keycardHeld"`
	DoorUnlocked bool     `json:"doorUnlocked"`
	BarsBent     int      `json:"barsBent"`
	Used         []string `json:"used"` // 已拾取/消耗的一次性物体 ID

	SavedAt time.Time `json:"savedAt"`
}

// SlotIndex 存档槽索引（YAML，与项目其他元数据一致）
type SlotIndex struct {
	Slots []SlotMetadata `yaml:"slots"`
}

// SlotMetadata 存档槽元数据
type SlotMetadata struct {
	Name    string    `yaml:"name"`
	Level   int       `yaml:"level"`
	SavedAt time.Time `yaml:"savedAt"`
}

// 存储路径常量
const (
	savesObject       = "saves"
	slotIndexProperty = "index"
	slotPropertyPref  = "slot_"
)

var slotNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,32}$`)

// SaveManager 存档管理器
//
// 职责：
//   - 把会话状态序列化为扁平 JSON 存档
//   - 按槽名持久化到 gdata（对象 "saves"）
//   - 维护存档槽索引
//
// gdataManager 为 nil 时降级为内存存档（进程退出即丢失）
type SaveManager struct {
	gdataManager *gdata.Manager
	memory       map[string][]byte
	index        SlotIndex
}

// NewSaveManager 创建存档管理器
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式）
//
// 返回：
//   - *SaveManager: 存档管理器实例
//   - error: 索引存在但无法读取时返回错误（管理器仍可用，索引为空）
func NewSaveManager(gdataManager *gdata.Manager) (*SaveManager, error) {
	sm := &SaveManager{
		gdataManager: gdataManager,
		memory:       make(map[string][]byte),
	}
	if err := sm.loadIndex(); err != nil {
		return sm, err
	}
	return sm, nil
}

// ValidateSlotName 校验存档槽名
//
// 规则：
//   - 不能为空
//   - 只能包含字母、数字、下划线和连字符
//   - 长度限制 1-32 字符
func ValidateSlotName(slot string) error {
	if slot == "" {
		return fmt.Errorf("slot name is required")
	}
	if !slotNamePattern.MatchString(slot) {
		return fmt.Errorf("invalid slot name %q: use 1-32 letters, digits, '_' or '-'", slot)
	}
	return nil
}

// Save 保存会话到存档槽
func (sm *SaveManager) Save(slot string, s *Session) error {
	return sm.SaveBlob(slot, NewSaveBlob(s))
}

// Load 从存档槽读取并应用到会话
// 存档关卡与当前关卡不同时先重新加载关卡
func (sm *SaveManager) Load(slot string, s *Session) error {
	blob, err := sm.LoadBlob(slot)
	if err != nil {
		return err
	}
	return ApplySaveBlob(s, blob)
}

// SaveBlob 写入存档数据
func (sm *SaveManager) SaveBlob(slot string, blob *SaveBlob) error {
	if err := ValidateSlotName(slot); err != nil {
		return err
	}
	if blob.SavedAt.IsZero() {
		blob.SavedAt = time.Now()
	}

	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal save blob: %w", err)
	}

	if err := sm.writeProp(slotPropertyPref+slot, data); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", slot, err)
	}

	sm.upsertIndex(SlotMetadata{Name: slot, Level: blob.Level, SavedAt: blob.SavedAt})
	if err := sm.saveIndex(); err != nil {
		return err
	}

	log.Printf("[SaveManager] Slot %s saved (level %d)", slot, blob.Level)
	return nil
}

// LoadBlob 读取存档数据
func (sm *SaveManager) LoadBlob(slot string) (*SaveBlob, error) {
	if err := ValidateSlotName(slot); err != nil {
		return nil, err
	}
	if !sm.Exists(slot) {
		return nil, fmt.Errorf("save slot %s not found", slot)
	}

	data, err := sm.readProp(slotPropertyPref + slot)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", slot, err)
	}

	var blob SaveBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slot %s: %w", slot, err)
	}
	return &blob, nil
}

// Exists 存档槽是否存在
func (sm *SaveManager) Exists(slot string) bool {
	for _, m := range sm.index.Slots {
		if m.Name == slot {
			return true
		}
	}
	return false
}

// ListSlots 返回所有存档槽（按保存时间从新到旧）
func (sm *SaveManager) ListSlots() []SlotMetadata {
	out := make([]SlotMetadata, len(sm.index.Slots))
	copy(out, sm.index.Slots)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out
}

// Delete 删除存档槽
// 从索引移除并清空存储内容
func (sm *SaveManager) Delete(slot string) error {
	if !sm.Exists(slot) {
		return fmt.Errorf("save slot %s not found", slot)
	}

	kept := sm.index.Slots[:0]
	for _, m := range sm.index.Slots {
		if m.Name != slot {
			kept = append(kept, m)
		}
	}
	sm.index.Slots = kept

	if err := sm.writeProp(slotPropertyPref+slot, []byte{}); err != nil {
		return fmt.Errorf("failed to clear slot %s: %w", slot, err)
	}
	delete(sm.memory, slotPropertyPref+slot)

	log.Printf("[SaveManager] Slot %s deleted", slot)
	return sm.saveIndex()
}

func (sm *SaveManager) upsertIndex(meta SlotMetadata) {
	for i := range sm.index.Slots {
		if sm.index.Slots[i].Name == meta.Name {
			sm.index.Slots[i] = meta
			return
		}
	}
	sm.index.Slots = append(sm.index.Slots, meta)
}

func (sm *SaveManager) loadIndex() error {
	if sm.gdataManager == nil || !sm.gdataManager.ObjectPropExists(savesObject, slotIndexProperty) {
		return nil
	}
	data, err := sm.gdataManager.LoadObjectProp(savesObject, slotIndexProperty)
	if err != nil {
		return fmt.Errorf("failed to load slot index: %w", err)
	}
	var index SlotIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("failed to unmarshal slot index: %w", err)
	}
	sm.index = index
	return nil
}

func (sm *SaveManager) saveIndex() error {
	if sm.gdataManager == nil {
		return nil
	}
	data, err := yaml.Marshal(&sm.index)
	if err != nil {
		return fmt.Errorf("failed to marshal slot index: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(savesObject, slotIndexProperty, data); err != nil {
		return fmt.Errorf("failed to save slot index: %w", err)
	}
	return nil
}

func (sm *SaveManager) writeProp(prop string, data []byte) error {
	if sm.gdataManager == nil {
		sm.memory[prop] = data
		return nil
	}
	return sm.gdataManager.SaveObjectProp(savesObject, prop, data)
}

func (sm *SaveManager) readProp(prop string) ([]byte, error) {
	if sm.gdataManager == nil {
		data, ok := sm.memory[prop]
		if !ok {
			return nil, fmt.Errorf("property %s not found", prop)
		}
		return data, nil
	}
	return sm.gdataManager.LoadObjectProp(savesObject, prop)
}

// NewSaveBlob 从会话构建存档数据
func NewSaveBlob(s *Session) *SaveBlob {
	p := s.Player
	inv := p.Inventory.Clone()
	return &SaveBlob{
		Level:        s.LevelID,
		X:            p.Position.X,
		Y:            p.Position.Y,
		Z:            p.Position.Z,
		Yaw:          p.Rotation.Y,
		Health:       p.Health,
		Armor:        p.Armor,
		Strength:     p.Strength,
		Weapons:      inv.Weapons,
		Ammo:         inv.Ammo,
		Flags:        inv.Flags,
		KeycardHeld:  s.Level.KeycardHeld,
		DoorUnlocked: s.Level.DoorUnlocked,
		BarsBent:     s.Level.BarsBent,
		Used:         s.UsedIDs(),
	}
}

// ApplySaveBlob 把存档应用到会话
//
// 顺序：关卡不同则先加载关卡（会重置关卡进度），再恢复变换、属性、物品栏和关卡进度。
// 一次性物体的使用状态总是替换为存档中的记录，存档之后拾取的物体可以重新拾取。
// 读档后玩家处于正常游戏状态（未束缚、控制已启用）。
func ApplySaveBlob(s *Session, blob *SaveBlob) error {
	if blob.Level != s.LevelID {
		if err := s.LoadLevel(blob.Level); err != nil {
			return fmt.Errorf("failed to apply save: %w", err)
		}
	}

	p := s.Player
	p.Position = utils.V3(blob.X, blob.Y, blob.Z)
	p.Rotation = utils.V3(0, blob.Yaw, 0)
	p.MeshRotation = p.Rotation
	p.Health = blob.Health
	p.Armor = blob.Armor
	p.Strength = blob.Strength

	inv := NewInventory()
	inv.Weapons = append(inv.Weapons, blob.Weapons...)
	for k, v := range blob.Ammo {
		inv.Ammo[k] = v
	}
	for k, v := range blob.Flags {
		inv.Flags[k] = v
	}
	p.Inventory = inv

	s.Level = LevelState{
		KeycardHeld:  blob.KeycardHeld,
		DoorUnlocked: blob.DoorUnlocked,
		BarsBent:     blob.BarsBent,
	}
	s.SetUsed(blob.Used)

	p.IsRestrained = false
	p.CutsceneDriven = false
	p.ControlsEnabled = true
	s.Paused = false
	return nil
}

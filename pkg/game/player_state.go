package game

import (
	"sort"

	"github.com/gonewx/cellbreak/pkg/utils"
)

// Authority 当前 tick 唯一允许修改玩家变换的一方
type Authority int

const (
	// AuthorityNone 没有任何一方持有玩家变换（例如开场被跳过后的静止状态）
	AuthorityNone Authority = iota
	// AuthorityGameplay 正常游戏移动
	AuthorityGameplay
	// AuthorityCutscene 开场动画链（坐起等）
	AuthorityCutscene
	// AuthorityRestraintLock 束缚锁定，把玩家钉在床上
	AuthorityRestraintLock
)

// String 返回权限名称
func (a Authority) String() string {
	switch a {
	case AuthorityGameplay:
		return "gameplay"
	case AuthorityCutscene:
		return "cutscene"
	case AuthorityRestraintLock:
		return "restraint-lock"
	default:
		return "none"
	}
}

// Inventory 玩家物品栏
type Inventory struct {
	Weapons []string        // 按拾取顺序
	Ammo    map[string]int  // 武器 -> 弹药数
	Flags   map[string]bool // 任务/物品标记，如 "keycard"
}

// NewInventory 创建空物品栏
func NewInventory() Inventory {
	return Inventory{
		Weapons: make([]string, 0),
		Ammo:    make(map[string]int),
		Flags:   make(map[string]bool),
	}
}

// HasWeapon 是否持有武器
func (inv *Inventory) HasWeapon(name string) bool {
	for _, w := range inv.Weapons {
		if w == name {
			return true
		}
	}
	return false
}

// AddWeapon 添加武器（重复添加无效），返回是否为新武器
func (inv *Inventory) AddWeapon(name string) bool {
	if name == "" || inv.HasWeapon(name) {
		return false
	}
	inv.Weapons = append(inv.Weapons, name)
	return true
}

// AddAmmo 增加弹药
func (inv *Inventory) AddAmmo(weapon string, amount int) {
	if inv.Ammo == nil {
		inv.Ammo = make(map[string]int)
	}
	inv.Ammo[weapon] += amount
	if inv.Ammo[weapon] < 0 {
		inv.Ammo[weapon] = 0
	}
}

// SetFlag 设置标记
func (inv *Inventory) SetFlag(flag string, value bool) {
	if inv.Flags == nil {
		inv.Flags = make(map[string]bool)
	}
	inv.Flags[flag] = value
}

// FlagNames 返回已设置为 true 的标记（排序后）
func (inv *Inventory) FlagNames() []string {
	names := make([]string, 0, len(inv.Flags))
	for k, v := range inv.Flags {
		if v {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Clone 深拷贝
func (inv Inventory) Clone() Inventory {
	out := NewInventory()
	out.Weapons = append(out.Weapons, inv.Weapons...)
	for k, v := range inv.Ammo {
		out.Ammo[k] = v
	}
	for k, v := range inv.Flags {
		out.Flags[k] = v
	}
	return out
}

// PlayerState 玩家状态
// 由 Session 持有，通过指针传递给需要读写的组件（HUD、拾取、控制台命令）
type PlayerState struct {
	Health   int
	Armor    int
	Strength int

	Inventory Inventory

	Position     utils.Vec3 // 碰撞体位置
	Rotation     utils.Vec3 // 碰撞体旋转（X=俯仰，Y=偏航，Z=翻滚，弧度）
	MeshRotation utils.Vec3 // 可见网格旋转（坐起动画期间可与碰撞体不同）
	MeshVisible  bool       // 第一人称时隐藏身体网格

	IsRestrained    bool // 被束缚在床上
	ControlsEnabled bool // 玩家输入是否生效
	CutsceneDriven  bool // 开场动画链正在驱动玩家变换
}

// NewPlayerState 创建默认玩家状态
func NewPlayerState() *PlayerState {
	return &PlayerState{
		Health:      100,
		Armor:       0,
		Strength:    10,
		Inventory:   NewInventory(),
		MeshVisible: true,
	}
}

// Authority 根据标记推导唯一的变换权限
// 控制已启用 → 游戏；动画链驱动 → 过场；被束缚 → 束缚锁定
func (p *PlayerState) Authority() Authority {
	switch {
	case p.ControlsEnabled:
		return AuthorityGameplay
	case p.CutsceneDriven:
		return AuthorityCutscene
	case p.IsRestrained:
		return AuthorityRestraintLock
	default:
		return AuthorityNone
	}
}

// Damage 扣除生命（先扣护甲）
func (p *PlayerState) Damage(amount int) {
	if amount <= 0 {
		return
	}
	absorbed := amount
	if absorbed > p.Armor {
		absorbed = p.Armor
	}
	p.Armor -= absorbed
	p.Health -= amount - absorbed
	if p.Health < 0 {
		p.Health = 0
	}
}

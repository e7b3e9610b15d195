package game

import (
	"fmt"
	"log"
	"math"

	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// InteractableKind 可交互物体类型（封闭枚举）
type InteractableKind int

const (
	KindDoor InteractableKind = iota
	KindKeycard
	KindWeapon
	KindAmmo
	KindBars
	KindTerminal
)

// String 返回类型名（与关卡配置一致）
func (k InteractableKind) String() string {
	switch k {
	case KindDoor:
		return "door"
	case KindKeycard:
		return "keycard"
	case KindWeapon:
		return "weapon"
	case KindAmmo:
		return "ammo"
	case KindBars:
		return "bars"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// ParseInteractableKind 解析类型名
func ParseInteractableKind(s string) (InteractableKind, error) {
	for k := KindDoor; k <= KindTerminal; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown interactable kind %q", s)
}

// Interactable 可交互物体
type Interactable struct {
	ID       string
	Kind     InteractableKind
	Position utils.Vec3
	Weapon   string
	Amount   int
	Code     string
}

// NewInteractablesFromConfig 从关卡配置构建可交互物体
func NewInteractablesFromConfig(spawns []config.InteractableSpawn) ([]*Interactable, error) {
	items := make([]*Interactable, 0, len(spawns))
	for _, sp := range spawns {
		kind, err := ParseInteractableKind(sp.Kind)
		if err != nil {
			return nil, fmt.Errorf("interactable %s: %w", sp.ID, err)
		}
		items = append(items, &Interactable{
			ID:       sp.ID,
			Kind:     kind,
			Position: sp.Position,
			Weapon:   sp.Weapon,
			Amount:   sp.Amount,
			Code:     sp.Code,
		})
	}
	return items, nil
}

// InteractionResult 交互结果
type InteractionResult struct {
	Message  string // 显示给玩家的提示
	Consumed bool   // 物体被拾取/消耗
}

// InteractionHandler 交互处理函数
type InteractionHandler func(s *Session, it *Interactable, input string) InteractionResult

var interactionHandlers = map[InteractableKind]InteractionHandler{
	KindDoor:     handleDoor,
	KindKeycard:  handleKeycard,
	KindWeapon:   handleWeapon,
	KindAmmo:     handleAmmo,
	KindBars:     handleBars,
	KindTerminal: handleTerminal,
}

// maxBarsBent 铁栏最多可掰弯的根数
const maxBarsBent = 2

// Interact 与物体交互
//
// 参数：
//   - it: 目标物体
//   - input: 附加输入（终端密码），其他类型忽略
//
// 返回：
//   - InteractionResult: 交互结果
//   - bool: false 表示交互未发生（控制未交还、物体已被消耗或类型未注册）
func (s *Session) Interact(it *Interactable, input string) (InteractionResult, bool) {
	if it == nil || s.Player.Authority() != AuthorityGameplay {
		return InteractionResult{}, false
	}
	if s.IsUsed(it.ID) {
		return InteractionResult{}, false
	}

	handler, ok := interactionHandlers[it.Kind]
	if !ok {
		log.Printf("[Interaction] No handler for kind %s (%s)", it.Kind, it.ID)
		return InteractionResult{}, false
	}

	result := handler(s, it, input)
	if result.Consumed {
		s.MarkUsed(it.ID)
	}
	return result, true
}

func handleDoor(s *Session, it *Interactable, _ string) InteractionResult {
	switch {
	case s.Level.DoorUnlocked:
		return InteractionResult{Message: "The door swings open."}
	case s.Level.KeycardHeld:
		s.Level.DoorUnlocked = true
		return InteractionResult{Message: "Keycard accepted. The door unlocks."}
	default:
		return InteractionResult{Message: "It's locked. I need a keycard."}
	}
}

func handleKeycard(s *Session, it *Interactable, _ string) InteractionResult {
	s.Level.KeycardHeld = true
	s.Player.Inventory.SetFlag("keycard", true)
	return InteractionResult{Message: "Picked up a keycard.", Consumed: true}
}

func handleWeapon(s *Session, it *Interactable, _ string) InteractionResult {
	if !s.Player.Inventory.AddWeapon(it.Weapon) {
		return InteractionResult{Message: fmt.Sprintf("I already have a %s.", it.Weapon), Consumed: true}
	}
	return InteractionResult{Message: fmt.Sprintf("Picked up a %s.", it.Weapon), Consumed: true}
}

func handleAmmo(s *Session, it *Interactable, _ string) InteractionResult {
	s.Player.Inventory.AddAmmo(it.Weapon, it.Amount)
	return InteractionResult{Message: fmt.Sprintf("+%d %s ammo", it.Amount, it.Weapon), Consumed: true}
}

func handleBars(s *Session, it *Interactable, _ string) InteractionResult {
	if s.Level.BarsBent >= maxBarsBent {
		return InteractionResult{Message: "The gap is wide enough to squeeze through."}
	}
	if s.Player.Strength < 10 {
		return InteractionResult{Message: "I'm not strong enough to bend these."}
	}
	s.Level.BarsBent++
	return InteractionResult{Message: fmt.Sprintf("Bent a bar (%d/%d).", s.Level.BarsBent, maxBarsBent)}
}

func handleTerminal(s *Session, it *Interactable, input string) InteractionResult {
	if input != it.Code {
		return InteractionResult{Message: "ACCESS DENIED"}
	}
	s.Level.DoorUnlocked = true
	s.Player.Inventory.SetFlag("terminal_"+it.ID, true)
	return InteractionResult{Message: "ACCESS GRANTED. Door control released.", Consumed: true}
}

// Picker 射线拾取能力：返回视线方向上最近的可交互物体
type Picker interface {
	Pick(origin utils.Vec3, yaw, pitch float64) (*Interactable, bool)
}

// RadiusPicker 以球体近似物体的射线拾取
type RadiusPicker struct {
	Session     *Session
	Radius      float64 // 物体拾取半径
	MaxDistance float64 // 最远交互距离
}

// Pick 实现 Picker
func (p *RadiusPicker) Pick(origin utils.Vec3, yaw, pitch float64) (*Interactable, bool) {
	dir := utils.V3(
		math.Sin(yaw)*math.Cos(pitch),
		math.Sin(pitch),
		-math.Cos(yaw)*math.Cos(pitch),
	)

	var best *Interactable
	bestT := math.MaxFloat64
	for _, it := range p.Session.Interactables {
		if p.Session.IsUsed(it.ID) {
			continue
		}
		toObj := it.Position.Sub(origin)
		t := toObj.X*dir.X + toObj.Y*dir.Y + toObj.Z*dir.Z
		if t < 0 || t > p.MaxDistance {
			continue
		}
		closest := origin.Add(dir.Scale(t))
		if closest.Distance(it.Position) > p.Radius {
			continue
		}
		if t < bestT {
			best, bestT = it, t
		}
	}
	return best, best != nil
}

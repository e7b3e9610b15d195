// Package types 定义共享的基础类型
// 这个包不依赖任何其他业务包，用于解决循环引用问题
package types

import "fmt"

// ActionTag 开场步骤动作标签（封闭集合）
type ActionTag string

const (
	// ActionNone 无动作（纯旁白或纯延迟步骤）
	ActionNone ActionTag = ""
	// ActionWake 醒来：相机推近被束缚的玩家
	ActionWake ActionTag = "wake"
	// ActionStruggle 挣扎：束缚带抖动（未被束缚时身体也抖动）
	ActionStruggle ActionTag = "struggle"
	// ActionSwitchToFirstPerson 切换到第一人称视角
	ActionSwitchToFirstPerson ActionTag = "switch-to-first-person"
	// ActionPromptBreakFree 显示挣脱提示并激活挣脱输入门
	ActionPromptBreakFree ActionTag = "prompt-break-free"
	// ActionBreakFree 挣断所有束缚带
	ActionBreakFree ActionTag = "break-free"
	// ActionSitUp 坐起并站立
	ActionSitUp ActionTag = "sit-up"
	// ActionEnableControls 交还玩家控制权（开场唯一出口）
	ActionEnableControls ActionTag = "enable-controls"
)

// AllActionTags 返回所有合法动作标签
func AllActionTags() []ActionTag {
	return []ActionTag{
		ActionWake,
		ActionStruggle,
		ActionSwitchToFirstPerson,
		ActionPromptBreakFree,
		ActionBreakFree,
		ActionSitUp,
		ActionEnableControls,
	}
}

// ParseActionTag 解析动作标签字符串
// 空字符串解析为 ActionNone
func ParseActionTag(s string) (ActionTag, error) {
	if s == "" {
		return ActionNone, nil
	}
	for _, tag := range AllActionTags() {
		if string(tag) == s {
			return tag, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action tag %q", s)
}

// Limb 束缚带所在肢体
type Limb int

const (
	LimbLeftWrist Limb = iota
	LimbRightWrist
	LimbLeftAnkle
	LimbRightAnkle
)

// AllLimbs 按固定顺序返回四个肢体（挣断时的错开顺序也依此）
func AllLimbs() []Limb {
	return []Limb{LimbLeftWrist, LimbRightWrist, LimbLeftAnkle, LimbRightAnkle}
}

// String 返回肢体的配置键名
func (l Limb) String() string {
	switch l {
	case LimbLeftWrist:
		return "left-wrist"
	case LimbRightWrist:
		return "right-wrist"
	case LimbLeftAnkle:
		return "left-ankle"
	case LimbRightAnkle:
		return "right-ankle"
	default:
		return "unknown"
	}
}

// CameraMode 相机模式
type CameraMode int

const (
	CameraModeNone CameraMode = iota
	CameraModeCeiling
	CameraModeFirstPerson
	CameraModeThirdPerson
)

// String 返回相机模式名
func (m CameraMode) String() string {
	switch m {
	case CameraModeCeiling:
		return "ceiling"
	case CameraModeFirstPerson:
		return "first-person"
	case CameraModeThirdPerson:
		return "third-person"
	default:
		return "none"
	}
}

// ParseCameraMode 解析相机模式名（配置文件使用）
func ParseCameraMode(s string) (CameraMode, error) {
	switch s {
	case "", "none":
		return CameraModeNone, nil
	case "ceiling":
		return CameraModeCeiling, nil
	case "first-person":
		return CameraModeFirstPerson, nil
	case "third-person":
		return CameraModeThirdPerson, nil
	}
	return CameraModeNone, fmt.Errorf("unknown camera mode %q", s)
}

// InputAction 逻辑输入动作（与具体按键解耦）
type InputAction int

const (
	InputBreakFree InputAction = iota
	InputMoveForward
	InputMoveBackward
	InputStrafeLeft
	InputStrafeRight
	InputInteract
)

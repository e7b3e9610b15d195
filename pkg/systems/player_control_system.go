package systems

import (
	"math"

	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

const maxLookPitch = math.Pi/2 - 0.05

// PlayerControlSystem 第一人称移动、视角和交互
// 只在 AuthorityGameplay 且未暂停时生效
type PlayerControlSystem struct {
	session *game.Session
	input   InputSource
	camera  *CameraSystem
	picker  game.Picker
	overlay Overlay
	strings *game.NarrationStrings
	pose    config.PlayerPoseConfig
}

// NewPlayerControlSystem 创建玩家控制系统
func NewPlayerControlSystem(session *game.Session, input InputSource, camera *CameraSystem, picker game.Picker,
	overlay Overlay, strings *game.NarrationStrings, pose config.PlayerPoseConfig) *PlayerControlSystem {
	return &PlayerControlSystem{
		session: session,
		input:   input,
		camera:  camera,
		picker:  picker,
		overlay: overlay,
		strings: strings,
		pose:    pose,
	}
}

// EyePosition 玩家眼睛位置
func (pc *PlayerControlSystem) EyePosition() utils.Vec3 {
	return pc.session.Player.Position.Add(utils.V3(0, pc.pose.HeadHeight, 0))
}

// Update 每 tick 处理输入（PhaseInput）
func (pc *PlayerControlSystem) Update(dt float64) {
	player := pc.session.Player
	if pc.input == nil || pc.session.Paused || player.Authority() != game.AuthorityGameplay {
		return
	}

	cam := pc.camera.Camera()
	dYaw, dPitch := pc.input.LookDelta()
	yaw := cam.Yaw + dYaw
	pitch := utils.Clamp(cam.Pitch+dPitch, -maxLookPitch, maxLookPitch)

	var forward, strafe float64
	if pc.input.IsHeld(types.InputMoveForward) {
		forward++
	}
	if pc.input.IsHeld(types.InputMoveBackward) {
		forward--
	}
	if pc.input.IsHeld(types.InputStrafeRight) {
		strafe++
	}
	if pc.input.IsHeld(types.InputStrafeLeft) {
		strafe--
	}
	if forward != 0 || strafe != 0 {
		// 对角线不加速
		norm := math.Hypot(forward, strafe)
		step := pc.pose.MoveSpeed * dt / norm
		sin, cos := math.Sincos(yaw)
		move := utils.V3(
			(sin*forward+cos*strafe)*step,
			0,
			(-cos*forward+sin*strafe)*step,
		)
		player.Position = player.Position.Add(move)
	}
	player.Rotation = utils.V3(0, yaw, 0)
	player.MeshRotation = player.Rotation

	cam.Position = pc.EyePosition()
	pc.camera.SetOrientation(yaw, pitch)

	if pc.input.JustPressed(types.InputInteract) {
		pc.interact(yaw, pitch)
	}
}

func (pc *PlayerControlSystem) interact(yaw, pitch float64) {
	if pc.picker == nil {
		return
	}
	it, ok := pc.picker.Pick(pc.EyePosition(), yaw, pitch)
	if !ok {
		return
	}
	result, ok := pc.session.Interact(it, "")
	if ok && result.Message != "" && pc.overlay != nil {
		pc.overlay.ShowMessage(pc.strings.Get(result.Message))
	}
}

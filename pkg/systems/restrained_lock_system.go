package systems

import (
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/game"
)

// RestrainedLockSystem 束缚锁定：被束缚且无其他权限时把玩家固定在床上
type RestrainedLockSystem struct {
	session *game.Session
	pose    config.PlayerPoseConfig
}

// NewRestrainedLockSystem 创建束缚锁定系统
func NewRestrainedLockSystem(session *game.Session, pose config.PlayerPoseConfig) *RestrainedLockSystem {
	return &RestrainedLockSystem{session: session, pose: pose}
}

// Update 每 tick 固定玩家姿态（PhaseRestraint）
func (rl *RestrainedLockSystem) Update(dt float64) {
	player := rl.session.Player
	if player.Authority() != game.AuthorityRestraintLock {
		return
	}
	rl.Pin()
}

// Pin 立即把玩家放到床上的躺姿
func (rl *RestrainedLockSystem) Pin() {
	player := rl.session.Player
	player.Position = rl.pose.BedPosition
	player.Rotation = rl.pose.BedRotation
	player.MeshRotation = rl.pose.BedRotation
}

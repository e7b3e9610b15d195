package scenes

import (
	"sort"

	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/systems"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// PlayerSkeleton 跟随玩家位置的静态骨骼
// 骨骼相对玩家位置的偏移取自躺姿下的束缚带初始位置
type PlayerSkeleton struct {
	player  *game.PlayerState
	offsets map[string]utils.Vec3
	names   []string
}

// NewPlayerSkeleton 根据开场配置创建骨骼
func NewPlayerSkeleton(player *game.PlayerState, cfg *config.IntroConfig) *PlayerSkeleton {
	sk := &PlayerSkeleton{
		player:  player,
		offsets: make(map[string]utils.Vec3),
	}
	for limb, bone := range cfg.Bones {
		rest, ok := cfg.Restraint.RestPositions[limb]
		if !ok {
			continue
		}
		sk.offsets[bone] = rest.Sub(cfg.Player.BedPosition)
		sk.names = append(sk.names, bone)
	}
	sort.Strings(sk.names)
	return sk
}

// Bone 实现 systems.Skeleton
func (sk *PlayerSkeleton) Bone(name string) (systems.Bone, bool) {
	off, ok := sk.offsets[name]
	if !ok {
		return systems.Bone{}, false
	}
	return systems.Bone{Name: name, Position: sk.player.Position.Add(off)}, true
}

// Bones 实现 systems.Skeleton
func (sk *PlayerSkeleton) Bones() []systems.Bone {
	out := make([]systems.Bone, 0, len(sk.names))
	for _, name := range sk.names {
		b, _ := sk.Bone(name)
		out = append(out, b)
	}
	return out
}

package scenes

import (
	"github.com/gonewx/cellbreak/pkg/game"
	"github.com/gonewx/cellbreak/pkg/systems"
)

// Scene is a type alias for game.Scene.
type Scene = game.Scene

var (
	_ Scene               = (*IntroScene)(nil)
	_ game.Saveable       = (*IntroScene)(nil)
	_ systems.Overlay     = (*HUD)(nil)
	_ systems.Skeleton    = (*PlayerSkeleton)(nil)
	_ systems.PropSpawner = (*EmbeddedPropSpawner)(nil)
	_ systems.InputSource = (*ManualInput)(nil)
)

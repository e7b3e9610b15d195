package scenes

import (
	"fmt"
	"log"

	"github.com/gonewx/cellbreak/pkg/embedded"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// EmbeddedPropSpawner 从嵌入资源生成道具
// 模型不存在时返回错误，调用方回退到程序化几何体
type EmbeddedPropSpawner struct {
	spawned int
}

// SpawnProp 实现 systems.PropSpawner
func (ps *EmbeddedPropSpawner) SpawnProp(modelPath string, position utils.Vec3) (string, error) {
	if modelPath == "" {
		return "", fmt.Errorf("empty model path")
	}
	if !embedded.Exists(modelPath) {
		return "", fmt.Errorf("model not found: %s", modelPath)
	}
	ps.spawned++
	handle := fmt.Sprintf("%s#%d", modelPath, ps.spawned)
	log.Printf("[PropSpawner] Spawned %s at (%.2f, %.2f, %.2f)", handle, position.X, position.Y, position.Z)
	return handle, nil
}

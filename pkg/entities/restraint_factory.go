package entities

import (
	"log"
	"math"
	"math/rand"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/config"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/types"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// SpawnPropFunc 生成外部模型，返回模型句柄
type SpawnPropFunc func(modelPath string, position utils.Vec3) (string, error)

// NewRestraintBandEntity 创建一条束缚带实体
// 参数:
//   - em: EntityManager 实例
//   - cfg: 束缚带参数（段数、模型路径）
//   - limb: 所在肢体
//   - position: 初始位置（骨骼可用前）
//   - spawn: 模型生成函数，可为 nil；失败时记录日志并使用程序化圆环
//   - rng: 每段抖动种子的随机源
//
// 返回: 创建的实体ID（未挂载、strain=0）
func NewRestraintBandEntity(em *ecs.EntityManager, cfg config.RestraintConfig, limb types.Limb,
	position utils.Vec3, spawn SpawnPropFunc, rng *rand.Rand) ecs.EntityID {
	id := em.CreateEntity()

	n := cfg.Segments
	if n < 1 {
		n = 12
	}
	segments := make([]components.BandSegment, n)
	for i := range segments {
		segments[i] = components.BandSegment{
			Index:         i,
			Angle:         2 * math.Pi * float64(i) / float64(n),
			Jitter:        rng.Float64(),
			StretchScale:  1,
			CompressScale: 1,
		}
	}

	band := &components.RestraintBandComponent{
		Limb:       limb,
		Segments:   segments,
		Position:   position,
		Procedural: true,
	}

	if spawn != nil && cfg.ModelPath != "" {
		handle, err := spawn(cfg.ModelPath, position)
		if err != nil {
			log.Printf("[entities] Failed to load restraint model %s for %s: %v (using procedural ring)",
				cfg.ModelPath, limb, err)
		} else {
			band.Procedural = false
			band.ModelHandle = handle
		}
	}

	ecs.AddComponent(em, id, band)
	return id
}

// NewRestraintBands 为四个肢体各创建一条束缚带，按肢体顺序返回
func NewRestraintBands(em *ecs.EntityManager, cfg *config.IntroConfig, spawn SpawnPropFunc, rng *rand.Rand) []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(types.AllLimbs()))
	for _, limb := range types.AllLimbs() {
		ids = append(ids, NewRestraintBandEntity(em, cfg.Restraint, limb, cfg.RestPositionFor(limb), spawn, rng))
	}
	return ids
}

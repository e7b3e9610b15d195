package entities

import (
	"math"
	"math/rand"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// 火花参数
const (
	sparkGravity  = 9.8
	sparkMinSpeed = 0.8
	sparkMaxSpeed = 2.4
)

// NewSparkBurstEntity 创建一次火花爆发
// 参数:
//   - em: EntityManager 实例
//   - origin: 爆发中心
//   - count: 火花数量
//   - lifetime: 存活时间（秒），到期后由 LifetimeSystem 销毁
//   - rng: 随机源
//
// 返回: 创建的实体ID
func NewSparkBurstEntity(em *ecs.EntityManager, origin utils.Vec3, count int, lifetime float64, rng *rand.Rand) ecs.EntityID {
	id := em.CreateEntity()

	particles := make([]components.SparkParticle, count)
	for i := range particles {
		// 上半球随机方向
		theta := rng.Float64() * 2 * math.Pi
		phi := rng.Float64() * math.Pi / 2
		speed := sparkMinSpeed + rng.Float64()*(sparkMaxSpeed-sparkMinSpeed)
		particles[i] = components.SparkParticle{
			Position: origin,
			Velocity: utils.V3(
				math.Cos(theta)*math.Cos(phi)*speed,
				math.Sin(phi)*speed,
				math.Sin(theta)*math.Cos(phi)*speed,
			),
			Alpha: 1,
		}
	}

	ecs.AddComponent(em, id, &components.SparkComponent{
		Origin:    origin,
		Particles: particles,
		Gravity:   sparkGravity,
	})
	ecs.AddComponent(em, id, &components.LifetimeComponent{
		MaxLifetime: lifetime,
	})

	return id
}

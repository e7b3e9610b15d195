package systems

import (
	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/ecs"
	"github.com/gonewx/cellbreak/pkg/utils"
)

// SparkSystem 火花粒子：重力下落并随寿命淡出
// 销毁由 LifetimeSystem 负责
type SparkSystem struct {
	entityManager *ecs.EntityManager
}

// NewSparkSystem 创建火花系统
func NewSparkSystem(em *ecs.EntityManager) *SparkSystem {
	return &SparkSystem{entityManager: em}
}

// Update 更新所有火花（PhaseAnimation）
func (ss *SparkSystem) Update(dt float64) {
	ids := ecs.GetEntitiesWith2[*components.SparkComponent, *components.LifetimeComponent](ss.entityManager)
	for _, id := range ids {
		spark, _ := ecs.GetComponent[*components.SparkComponent](ss.entityManager, id)
		lifetime, _ := ecs.GetComponent[*components.LifetimeComponent](ss.entityManager, id)

		alpha := 1.0
		if lifetime.MaxLifetime > 0 {
			alpha = 1 - utils.Clamp01(lifetime.CurrentLifetime/lifetime.MaxLifetime)
		}
		for i := range spark.Particles {
			p := &spark.Particles[i]
			p.Velocity.Y -= spark.Gravity * dt
			p.Position = p.Position.Add(p.Velocity.Scale(dt))
			p.Alpha = alpha
		}
	}
}

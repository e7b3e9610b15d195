package components

import "github.com/gonewx/cellbreak/pkg/utils"

// SparkParticle 单个火花
type SparkParticle struct {
	Position utils.Vec3
	Velocity utils.Vec3
	Alpha    float64
}

// SparkComponent 束缚带断裂时的火花爆发
type SparkComponent struct {
	Origin    utils.Vec3
	Particles []SparkParticle
	Gravity   float64
}

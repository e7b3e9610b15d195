package systems

import (
	"testing"

	"github.com/gonewx/cellbreak/pkg/components"
	"github.com/gonewx/cellbreak/pkg/ecs"
)

func TestLifetimeExpiration(t *testing.T) {
	tests := []struct {
		name        string
		maxLifetime float64
		elapsed     float64
		wantExpired bool
	}{
		{"未过期", 1.0, 0.5, false},
		{"恰好过期", 1.0, 1.0, true},
		{"超过寿命", 1.0, 2.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := ecs.NewEntityManager()
			system := NewLifetimeSystem(em)

			id := em.CreateEntity()
			ecs.AddComponent(em, id, &components.LifetimeComponent{MaxLifetime: tt.maxLifetime})

			system.Update(tt.elapsed)

			lifetime, _ := ecs.GetComponent[*components.LifetimeComponent](em, id)
			if lifetime.IsExpired != tt.wantExpired {
				t.Errorf("IsExpired = %v, 期望 %v", lifetime.IsExpired, tt.wantExpired)
			}

			em.RemoveMarkedEntities()
			if em.EntityExists(id) == tt.wantExpired {
				t.Errorf("EntityExists = %v, 期望 %v", em.EntityExists(id), !tt.wantExpired)
			}
		})
	}
}

package game

import (
	"context"
	"fmt"

	"github.com/gameraccoon/raccoon-ecs-go"
)

// RunSimulation spawns a small population of entities from the BaseStats
// archetypes and ticks a SystemsManager a few times. It exists to show how
// the pieces in this package are meant to be wired together; it is not
// exercised by the test suite.
func RunSimulation() error {
	registry := ecs.NewRegistry[string]()
	store := ecs.NewEntityStore[string](registry)
	store.InitIndex(TypeBaseStats)
	store.InitIndex(TypeCurrentStats)
	store.InitIndex(TypeStatModifiers)
	store.InitIndex(TypePosition)

	spawnZombie := func(i int) {
		e := store.AddEntity()
		ecs.SetComponent(store, e, TypeBaseStats, ZombieBaseStats)
		ecs.SetComponent(store, e, TypeCurrentStats, CurrentStats{CurrentHealth: ZombieBaseStats.MaxHealth})
		ecs.SetComponent(store, e, TypePosition, Position{X: float64(i * 10), Y: float64(i % 10)})
	}
	for i := 0; i < 100; i++ {
		spawnZombie(i)
	}

	boss := store.AddEntity()
	ecs.SetComponent(store, boss, TypeBaseStats, BossBaseStats)
	ecs.SetComponent(store, boss, TypeCurrentStats, CurrentStats{CurrentHealth: BossBaseStats.MaxHealth})
	ecs.SetComponent(store, boss, TypePosition, Position{X: 500, Y: 500})

	logger := ecs.NewZapLogger(nil)
	manager := ecs.NewSystemsManager[string](ecs.WithManagerLogger[string](logger))

	health := &HealthSystem{Store: store, Logger: logger}
	combat := &CombatSystem{Store: store, Logger: logger}
	cleanup := &ModifierCleanupSystem{Store: store, Logger: logger}
	display := &StatsDisplaySystem{Store: store, Logger: logger}

	if err := manager.Register("health", health, health.Filter()); err != nil {
		return err
	}
	if err := manager.Register("combat", combat, combat.Filter(), ecs.GoesAfter[string]("health")); err != nil {
		return err
	}
	if err := manager.Register("modifier_cleanup", cleanup, cleanup.Filter()); err != nil {
		return err
	}
	if err := manager.Register("stats_display", display, display.Filter(), ecs.GoesAfter[string]("combat", "modifier_cleanup")); err != nil {
		return err
	}

	if err := manager.Init(4); err != nil {
		return err
	}
	defer manager.Close()

	for i := 0; i < 3; i++ {
		if err := manager.Update(context.Background()); err != nil {
			return err
		}
	}

	fmt.Printf("simulated %d entities for 3 ticks\n", store.Count())
	return nil
}

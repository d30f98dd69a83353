package game

import (
	"context"
	"time"

	"github.com/gameraccoon/raccoon-ecs-go"
)

// HealthSystem manages entity health, death, and regeneration. It reads
// BaseStats and StatModifiers, and writes CurrentStats.
type HealthSystem struct {
	Store  *ecs.EntityStore[string]
	Logger ecs.Logger
}

// Filter declares HealthSystem's component access for the systems manager.
func (s *HealthSystem) Filter() ecs.ComponentFilter[string] {
	return ecs.ComponentFilter[string]{
		Reads:  []string{TypeBaseStats, TypeStatModifiers},
		Writes: []string{TypeCurrentStats},
	}
}

func (s *HealthSystem) Update(ctx context.Context) {
	ecs.ForEachComponentSetWithEntity1(s.Store, TypeCurrentStats, func(e ecs.Entity, current *CurrentStats) {
		if current.IsDead {
			return
		}

		base, hasBase := ecs.GetComponent[string, BaseStats](s.Store, e, TypeBaseStats)
		if !hasBase {
			return
		}

		mods, _ := ecs.GetComponent[string, StatModifiers](s.Store, e, TypeStatModifiers)
		if mods != nil {
			for _, mod := range mods.Modifiers {
				if mod.Type == ModifierTypeHealthRegen {
					current.CurrentHealth += int(mod.Value)
					if current.CurrentHealth > base.MaxHealth {
						current.CurrentHealth = base.MaxHealth
					}
				}
			}
		}

		if current.CurrentHealth <= 0 {
			current.IsDead = true
			current.CurrentHealth = 0
			s.Logger.Info("entity died", "entity", e.String())
		}
	})
}

// CombatSystem handles damage calculation using base stats, modifiers, and
// proximity. It reads BaseStats, StatModifiers, and Position, and writes
// CurrentStats.
type CombatSystem struct {
	Store  *ecs.EntityStore[string]
	Logger ecs.Logger
}

func (s *CombatSystem) Filter() ecs.ComponentFilter[string] {
	return ecs.ComponentFilter[string]{
		Reads:  []string{TypeBaseStats, TypeStatModifiers, TypePosition},
		Writes: []string{TypeCurrentStats},
	}
}

const attackRangeSquared = 100.0

func (s *CombatSystem) Update(ctx context.Context) {
	var combatants []ecs.EntityPair2[CurrentStats, Position]
	ecs.GetComponentsWithEntities2(s.Store, TypeCurrentStats, TypePosition, &combatants)

	for i := range combatants {
		attacker := combatants[i]
		if attacker.V1.IsDead {
			continue
		}

		attackerBase, ok := ecs.GetComponent[string, BaseStats](s.Store, attacker.Entity, TypeBaseStats)
		if !ok {
			continue
		}
		attackerMods, _ := ecs.GetComponent[string, StatModifiers](s.Store, attacker.Entity, TypeStatModifiers)

		for j := range combatants {
			if i == j {
				continue
			}
			target := combatants[j]
			if target.V1.IsDead {
				continue
			}

			dx := attacker.V2.X - target.V2.X
			dy := attacker.V2.Y - target.V2.Y
			if dx*dx+dy*dy > attackRangeSquared {
				continue
			}

			targetBase, ok := ecs.GetComponent[string, BaseStats](s.Store, target.Entity, TypeBaseStats)
			if !ok {
				continue
			}
			targetMods, _ := ecs.GetComponent[string, StatModifiers](s.Store, target.Entity, TypeStatModifiers)

			damage := GetEffectiveAttack(*attackerBase, attackerMods) - GetEffectiveDefense(*targetBase, targetMods)
			if damage < 1 {
				damage = 1
			}

			target.V1.CurrentHealth -= damage
			s.Logger.Info("combat",
				"attacker", attacker.Entity.String(),
				"target", target.Entity.String(),
				"damage", damage,
				"remaining_health", target.V1.CurrentHealth,
			)
			break
		}
	}
}

// ModifierCleanupSystem removes expired stat modifiers. It writes
// StatModifiers only.
type ModifierCleanupSystem struct {
	Store  *ecs.EntityStore[string]
	Logger ecs.Logger
}

func (s *ModifierCleanupSystem) Filter() ecs.ComponentFilter[string] {
	return ecs.ComponentFilter[string]{Writes: []string{TypeStatModifiers}}
}

func (s *ModifierCleanupSystem) Update(ctx context.Context) {
	now := time.Now()
	ecs.ForEachComponentSetWithEntity1(s.Store, TypeStatModifiers, func(e ecs.Entity, mods *StatModifiers) {
		if mods.RemoveExpired(now) {
			s.Logger.Info("expired modifiers removed", "entity", e.String())
		}
	})
}

// StatsDisplaySystem logs effective entity stats for debugging. It only
// reads components; because it reads CurrentStats and StatModifiers, the
// systems manager still orders it after every earlier-registered system
// that writes either of them.
type StatsDisplaySystem struct {
	Store  *ecs.EntityStore[string]
	Logger ecs.Logger
}

func (s *StatsDisplaySystem) Filter() ecs.ComponentFilter[string] {
	return ecs.ComponentFilter[string]{Reads: []string{TypeBaseStats, TypeCurrentStats, TypeStatModifiers}}
}

func (s *StatsDisplaySystem) Update(ctx context.Context) {
	ecs.ForEachComponentSetWithEntity2(s.Store, TypeCurrentStats, TypeBaseStats, func(e ecs.Entity, current *CurrentStats, base *BaseStats) {
		mods, _ := ecs.GetComponent[string, StatModifiers](s.Store, e, TypeStatModifiers)

		modCount := 0
		if mods != nil {
			modCount = len(mods.Modifiers)
		}

		s.Logger.Info("entity stats",
			"entity", e.String(),
			"health", current.CurrentHealth,
			"max_health", base.MaxHealth,
			"attack", GetEffectiveAttack(*base, mods),
			"defense", GetEffectiveDefense(*base, mods),
			"speed", GetEffectiveSpeed(*base, mods),
			"active_modifiers", modCount,
			"is_dead", current.IsDead,
		)
	})
}

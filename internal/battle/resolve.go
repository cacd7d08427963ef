package battle

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/emberclash/api/internal/models"
)

// Resource economy constants. SP gain is intentionally asymmetric so player
// specials come up more often than enemy specials.
const (
	playerSPGainPercent = 0.45
	enemySPGainPercent  = 0.20
	specialCostPercent  = 0.8
	specialMultiplier   = 1.8
	attackMultiplier    = 1.0
	downgradeMultiplier = 0.7
	playerHealFraction  = 0.30
	enemyHealFraction   = 0.20
)

// rollMultiplier draws the damage variance factor, uniform in [0.8, 1.2).
func rollMultiplier() float64 {
	return 0.8 + rand.Float64()*0.4
}

// specialCost returns the SP price of a special action for a combatant.
func specialCost(maxSP int) int {
	return int(math.Floor(float64(maxSP) * specialCostPercent))
}

// spGain returns the SP granted for a non-special action.
func spGain(maxSP int, gainPercent float64) int {
	gain := int(math.Floor(float64(maxSP) * gainPercent))
	if gain < 1 {
		gain = 1
	}
	return gain
}

// attackDamage computes floor(attack × multiplier × roll) − defense, floored
// at 1 so every landed hit makes progress.
func attackDamage(attack int, multiplier, roll float64, defense int) int {
	damage := int(math.Floor(float64(attack)*multiplier*roll)) - defense
	if damage < 1 {
		damage = 1
	}
	return damage
}

// resolveAction applies one action by actor against target and returns the
// log record. HP and SP are clamped to their valid ranges before returning;
// the caller checks target HP for battle end.
func resolveAction(turnNumber int, side models.Turn, actor, target *models.Character, action models.Action, roll float64) models.TurnRecord {
	gainPercent := playerSPGainPercent
	healFraction := playerHealFraction
	if side == models.TurnEnemy {
		gainPercent = enemySPGainPercent
		healFraction = enemyHealFraction
	}

	rec := models.TurnRecord{
		Turn:   turnNumber,
		Actor:  side,
		Action: action,
	}

	switch action {
	case models.ActionAttack:
		rec.Damage = attackDamage(actor.Stats.Attack, attackMultiplier, roll, target.Stats.Defense)
		rec.SPGained = spGain(actor.Stats.MaxSpecialPoints, gainPercent)
		actor.Stats.SpecialPoints += rec.SPGained
		target.Stats.HitPoints -= rec.Damage
		rec.Message = fmt.Sprintf("%s attacks %s for %d damage", actor.Username, target.Username, rec.Damage)

	case models.ActionSpecial:
		cost := specialCost(actor.Stats.MaxSpecialPoints)
		if actor.Stats.SpecialPoints < cost {
			// Not enough SP: the special fizzles into a weakened strike.
			// SP is zeroed and no gain applies.
			rec.Downgraded = true
			rec.SPSpent = actor.Stats.SpecialPoints
			actor.Stats.SpecialPoints = 0
			normal := attackDamage(actor.Stats.Attack, attackMultiplier, roll, target.Stats.Defense)
			rec.Damage = int(math.Floor(float64(normal) * downgradeMultiplier))
			if rec.Damage < 1 {
				rec.Damage = 1
			}
			rec.Message = fmt.Sprintf("%s's special fizzles, striking %s for %d damage", actor.Username, target.Username, rec.Damage)
		} else {
			rec.SPSpent = cost
			actor.Stats.SpecialPoints -= cost
			rec.Damage = attackDamage(actor.Stats.Attack, specialMultiplier, roll, target.Stats.Defense)
			rec.Message = fmt.Sprintf("%s unleashes a special on %s for %d damage", actor.Username, target.Username, rec.Damage)
		}
		target.Stats.HitPoints -= rec.Damage

	case models.ActionDefend:
		rec.SPGained = spGain(actor.Stats.MaxSpecialPoints, gainPercent)
		actor.Stats.SpecialPoints += rec.SPGained
		rec.Message = fmt.Sprintf("%s braces and recovers %d SP", actor.Username, rec.SPGained)

	case models.ActionHeal:
		amount := int(math.Floor(float64(actor.Stats.MaxHitPoints) * healFraction))
		before := actor.Stats.HitPoints
		actor.Stats.HitPoints += amount
		if actor.Stats.HitPoints > actor.Stats.MaxHitPoints {
			actor.Stats.HitPoints = actor.Stats.MaxHitPoints
		}
		rec.Healed = actor.Stats.HitPoints - before
		rec.SPGained = spGain(actor.Stats.MaxSpecialPoints, gainPercent)
		actor.Stats.SpecialPoints += rec.SPGained
		rec.Message = fmt.Sprintf("%s heals for %d HP", actor.Username, rec.Healed)
	}

	clampResources(&actor.Stats)
	clampResources(&target.Stats)
	rec.TargetHP = target.Stats.HitPoints

	return rec
}

// chooseEnemyAction picks the automated enemy's move: special when affordable,
// heal when badly hurt (one roll in three), otherwise attack.
func chooseEnemyAction(enemy *models.Character) models.Action {
	if enemy.Stats.SpecialPoints >= specialCost(enemy.Stats.MaxSpecialPoints) {
		return models.ActionSpecial
	}
	if enemy.Stats.HitPoints*100 < enemy.Stats.MaxHitPoints*35 && rand.Intn(3) == 0 {
		return models.ActionHeal
	}
	return models.ActionAttack
}

func clampResources(stats *models.CharacterStats) {
	if stats.HitPoints < 0 {
		stats.HitPoints = 0
	}
	if stats.HitPoints > stats.MaxHitPoints {
		stats.HitPoints = stats.MaxHitPoints
	}
	if stats.SpecialPoints < 0 {
		stats.SpecialPoints = 0
	}
	if stats.SpecialPoints > stats.MaxSpecialPoints {
		stats.SpecialPoints = stats.MaxSpecialPoints
	}
}

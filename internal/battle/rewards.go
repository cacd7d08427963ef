package battle

import (
	"github.com/emberclash/api/internal/models"
	"github.com/emberclash/api/internal/player"
)

// Reward coefficients per enemy level.
const (
	experiencePerEnemyLevel = 25
	goldPerEnemyLevel       = 15
)

// Level-up grants.
const (
	levelUpMaxHPBonus     = 20
	levelUpMaxSPBonus     = 5
	levelUpAttackBonus    = 3
	levelUpDefenseBonus   = 2
	levelUpSkillPointGain = 1
)

// ExpectedRewards previews the payout for defeating an enemy of the given
// level at the given difficulty.
func ExpectedRewards(enemyLevel int, difficulty models.Difficulty) models.ExpectedRewards {
	risk := "moderate"
	switch difficulty {
	case models.DifficultyEasy:
		risk = "low"
	case models.DifficultyHard:
		risk = "high"
	}
	return models.ExpectedRewards{
		Experience: enemyLevel * experiencePerEnemyLevel,
		Gold:       enemyLevel * goldPerEnemyLevel,
		RiskLevel:  risk,
	}
}

// applyVictoryRewards mutates the winner's stats with experience, gold, and
// at most one level-up. A single victory never grants two levels even when
// the carried remainder would qualify; the remainder just waits for the next
// win.
func applyVictoryRewards(stats *models.CharacterStats, enemyLevel int) models.Rewards {
	rewards := models.Rewards{
		Experience: enemyLevel * experiencePerEnemyLevel,
		Gold:       enemyLevel * goldPerEnemyLevel,
	}

	stats.Gold += rewards.Gold
	stats.Experience += rewards.Experience

	if stats.Experience >= stats.ExperienceToNext {
		stats.Experience -= stats.ExperienceToNext
		stats.Level++
		stats.ExperienceToNext = stats.Level * player.ExperiencePerLevel
		stats.MaxHitPoints += levelUpMaxHPBonus
		stats.HitPoints = stats.MaxHitPoints
		stats.MaxSpecialPoints += levelUpMaxSPBonus
		stats.SpecialPoints = stats.MaxSpecialPoints
		stats.Attack += levelUpAttackBonus
		stats.Defense += levelUpDefenseBonus
		stats.SkillPoints += levelUpSkillPointGain
		rewards.LeveledUp = true
		rewards.NewLevel = stats.Level
	}

	return rewards
}

package pointsdomain

import (
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// ComputePoints applies the streak reward rules to one activity.
//
// Thresholds are checked descending, so a streak satisfying several tiers
// only receives the highest one. Zero or negative base points always pass
// through unmodified: penalties never earn streak rewards.
func ComputePoints(
	name sharedtypes.ActivityName,
	basePoints sharedtypes.Points,
	streakLength sharedtypes.StreakLength,
	settings Settings,
) sharedtypes.ProcessedActivity {
	result := sharedtypes.ProcessedActivity{
		Name:           name,
		OriginalPoints: basePoints,
		TotalPoints:    basePoints,
		StreakLength:   streakLength,
		Multiplier:     1,
	}

	if basePoints <= 0 {
		return result
	}

	switch {
	case int(streakLength) >= settings.Thresholds.Multiplier:
		result.Multiplier = 2
		result.TotalPoints = basePoints * 2
	case int(streakLength) >= settings.Thresholds.Bonus2:
		result.BonusPoints = sharedtypes.Points(settings.BonusPoints.Bonus2)
		result.TotalPoints = basePoints + result.BonusPoints
	case int(streakLength) >= settings.Thresholds.Bonus1:
		result.BonusPoints = sharedtypes.Points(settings.BonusPoints.Bonus1)
		result.TotalPoints = basePoints + result.BonusPoints
	}

	return result
}

// ResolveStreakLength picks an activity's streak for scoring: the full map
// wins, then the building map, else zero.
func ResolveStreakLength(
	name sharedtypes.ActivityName,
	full map[sharedtypes.ActivityName]sharedtypes.StreakLength,
	building map[sharedtypes.ActivityName]sharedtypes.StreakLength,
) sharedtypes.StreakLength {
	if n, ok := full[name]; ok {
		return n
	}
	if n, ok := building[name]; ok {
		return n
	}
	return 0
}

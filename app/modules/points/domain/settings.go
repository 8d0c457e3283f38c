// Package pointsdomain defines the streak settings schema and the points rules.
package pointsdomain

import "fmt"

// Thresholds are the streak-day counts that unlock each reward tier.
// They must be strictly increasing: bonus1 < bonus2 < multiplier.
type Thresholds struct {
	Bonus1     int `json:"bonus1" yaml:"bonus1"`
	Bonus2     int `json:"bonus2" yaml:"bonus2"`
	Multiplier int `json:"multiplier" yaml:"multiplier"`
}

// BonusPoints are the flat bonuses for the two bonus tiers.
type BonusPoints struct {
	Bonus1 int `json:"bonus1" yaml:"bonus1"`
	Bonus2 int `json:"bonus2" yaml:"bonus2"`
}

// Settings is the single canonical streak-settings schema. The persisted row
// is the source of truth; defaults apply only until first load or when the
// stored payload fails validation.
type Settings struct {
	Thresholds  Thresholds  `json:"thresholds" yaml:"thresholds"`
	BonusPoints BonusPoints `json:"bonus_points" yaml:"bonus_points"`
}

// DefaultSettings returns the in-process defaults: bonus at 3 and 7 days,
// doubling at 14.
func DefaultSettings() Settings {
	return Settings{
		Thresholds:  Thresholds{Bonus1: 3, Bonus2: 7, Multiplier: 14},
		BonusPoints: BonusPoints{Bonus1: 1, Bonus2: 2},
	}
}

// Validate checks the shape invariants.
func (s Settings) Validate() error {
	if s.Thresholds.Bonus1 <= 0 {
		return fmt.Errorf("bonus1 threshold must be positive, got %d", s.Thresholds.Bonus1)
	}
	if s.Thresholds.Bonus1 >= s.Thresholds.Bonus2 {
		return fmt.Errorf("thresholds must be strictly increasing: bonus1 %d >= bonus2 %d",
			s.Thresholds.Bonus1, s.Thresholds.Bonus2)
	}
	if s.Thresholds.Bonus2 >= s.Thresholds.Multiplier {
		return fmt.Errorf("thresholds must be strictly increasing: bonus2 %d >= multiplier %d",
			s.Thresholds.Bonus2, s.Thresholds.Multiplier)
	}
	return nil
}

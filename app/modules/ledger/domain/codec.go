// Package ledgerdomain holds the ledger row token grammar.
//
// A row's activity cell is the only historical record of what was logged, so
// the grammar below is load-bearing: digests, streak history, and lifetime
// counts all re-parse it. Do not change the format without updating every
// decode site and the stored data.
package ledgerdomain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

const (
	// PositiveGlyph and NegativeGlyph lead every token.
	PositiveGlyph = "➕"
	NegativeGlyph = "➖"

	// StreakGlyph marks the optional streak annotation.
	StreakGlyph = "🔥"

	// TokenSeparator joins tokens within one row cell.
	TokenSeparator = ", "

	// streakAnnotationMin is the shortest streak worth annotating; shorter
	// runs carry no bonus and would only add noise to the cell.
	streakAnnotationMin = 3
)

// tokenPattern counts sign glyphs so DecodeRow can spot malformed segments.
var tokenPattern = regexp.MustCompile(PositiveGlyph + `|` + NegativeGlyph)

// tokenRe matches one encoded token anywhere in a row cell:
// sign glyph, space, non-greedy name, optional "(🔥N)", terminating "(±N)".
// Names may contain punctuation but never parentheses or sign glyphs. The
// glyph exclusion stops a malformed segment's name from spanning into the
// next valid token and stealing its sign.
var tokenRe = regexp.MustCompile(
	`(` + PositiveGlyph + `|` + NegativeGlyph + `) ([^` + PositiveGlyph + NegativeGlyph + `]+?)(?: \(` + StreakGlyph + `(\d+)\))? \(([+-]\d+)\)`,
)

// Token is one decoded ledger entry.
type Token struct {
	Name         sharedtypes.ActivityName
	Points       sharedtypes.Points
	StreakLength sharedtypes.StreakLength
	Positive     bool
}

// Encode renders a processed activity into its row token.
// The sign reflects the activity's original (pre-bonus) sign.
func Encode(a sharedtypes.ProcessedActivity) string {
	sign := PositiveGlyph
	if a.OriginalPoints < 0 {
		sign = NegativeGlyph
	}

	if a.StreakLength >= streakAnnotationMin {
		return fmt.Sprintf("%s %s (%s%d) (%+d)", sign, a.Name, StreakGlyph, a.StreakLength, a.TotalPoints)
	}
	return fmt.Sprintf("%s %s (%+d)", sign, a.Name, a.TotalPoints)
}

// EncodeRow joins the tokens for one submission with the row separator.
func EncodeRow(activities []sharedtypes.ProcessedActivity) string {
	parts := make([]string, 0, len(activities))
	for _, a := range activities {
		parts = append(parts, Encode(a))
	}
	return strings.Join(parts, TokenSeparator)
}

// DecodeRow parses every token in a row cell. Segments that open with a sign
// glyph but fail the grammar are counted in skipped so callers can log them;
// decoding itself never fails.
func DecodeRow(encoded string) (tokens []Token, skipped int) {
	if strings.TrimSpace(encoded) == "" {
		return nil, 0
	}

	matches := tokenRe.FindAllStringSubmatch(encoded, -1)
	for _, m := range matches {
		points, err := strconv.Atoi(m[4])
		if err != nil {
			skipped++
			continue
		}

		var streak int
		if m[3] != "" {
			streak, _ = strconv.Atoi(m[3])
		}

		tokens = append(tokens, Token{
			Name:         sharedtypes.ActivityName(strings.TrimSpace(m[2])),
			Points:       sharedtypes.Points(points),
			StreakLength: sharedtypes.StreakLength(streak),
			Positive:     m[1] == PositiveGlyph,
		})
	}

	// Any sign glyph beyond the matched tokens marks a malformed segment.
	if extra := len(tokenPattern.FindAllString(encoded, -1)) - len(matches); extra > 0 {
		skipped += extra
	}

	return tokens, skipped
}

// DecodeNames extracts just the base activity names, the common read path for
// streak history and lifetime counts.
func DecodeNames(encoded string) []sharedtypes.ActivityName {
	tokens, _ := DecodeRow(encoded)
	names := make([]sharedtypes.ActivityName, 0, len(tokens))
	for _, t := range tokens {
		names = append(names, t.Name)
	}
	return names
}

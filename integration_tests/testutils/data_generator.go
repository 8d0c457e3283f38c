// Package testutils holds shared helpers for the integration suite: the
// container-backed test environment and seeded fake data.
package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	catalogdb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/infrastructure/repositories"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	sharedtypes "github.com/Hearth-Ledger-Club/hearth-bot/app/shared/types"
)

// TestDataGenerator produces seeded fake domain data so failures reproduce.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a generator; pass a seed to pin the data.
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	s := time.Now().UnixNano()
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(uint64(s)), seed: s}
}

// Seed returns the seed in use, for logging on failure.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// Identity generates a submitter identity (an email address).
func (g *TestDataGenerator) Identity() sharedtypes.Identity {
	return sharedtypes.Identity(g.faker.Email())
}

// HouseholdID generates a household identifier.
func (g *TestDataGenerator) HouseholdID() sharedtypes.HouseholdID {
	return sharedtypes.HouseholdID(g.faker.UUID())
}

// HouseholdMember generates one membership row for the given household.
func (g *TestDataGenerator) HouseholdMember(householdID sharedtypes.HouseholdID) householddb.HouseholdMember {
	return householddb.HouseholdMember{
		HouseholdID: householdID.String(),
		Identity:    g.faker.Email(),
		DisplayName: g.faker.FirstName(),
		Email:       g.faker.Email(),
		JoinedAt:    g.faker.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
	}
}

// CatalogDefinitions generates n positive-point activity definitions with
// unique names.
func (g *TestDataGenerator) CatalogDefinitions(n int) []catalogdb.ActivityDefinition {
	defs := make([]catalogdb.ActivityDefinition, 0, n)
	for i := 0; i < n; i++ {
		defs = append(defs, catalogdb.ActivityDefinition{
			Name:       fmt.Sprintf("%s %s %d", g.faker.Verb(), g.faker.NounConcrete(), i),
			BasePoints: g.faker.Number(1, 5),
			Category:   g.faker.RandomString([]string{"kitchen", "wellness", "home", "errands"}),
		})
	}
	return defs
}

package app_test

import (
	"math/rand"
	"testing"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleDailyMatchesSeededOrder(t *testing.T) {
	cases := []struct {
		name  string
		bank  int
		date  string
		count int
		want  []string
	}{
		{"five of five", 5, "2024-01-01", 5, []string{"q1", "q5", "q4", "q2", "q3"}},
		{"next day", 5, "2024-01-02", 5, []string{"q5", "q4", "q2", "q1", "q3"}},
		{"prefix", 10, "2026-10-17", 3, []string{"q4", "q5", "q3"}},
		{"prefix next day", 10, "2026-10-18", 3, []string{"q1", "q8", "q4"}},
		{"full bank", 10, "2026-10-17", 10, []string{"q4", "q5", "q3", "q1", "q7", "q2", "q10", "q6", "q8", "q9"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := app.SampleDaily(numberedBank(tc.bank), tc.date, tc.count)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestSampleDailyIsDeterministic(t *testing.T) {
	bank := numberedBank(30)
	first := app.SampleDaily(bank, "2026-10-17", 10)
	second := app.SampleDaily(bank, "2026-10-17", 10)
	assert.Equal(t, ids(first), ids(second))

	other := app.SampleDaily(bank, "2026-10-18", 10)
	assert.NotEqual(t, ids(first), ids(other))
}

func TestSampleDailyDoesNotMutateBank(t *testing.T) {
	bank := numberedBank(10)
	app.SampleDaily(bank, "2026-10-17", 10)
	assert.Equal(t, "q1", bank[0].ID)
	assert.Equal(t, "q10", bank[9].ID)
}

// Scenario C: asking for more than the bank holds returns the whole bank in
// seeded order.
func TestSampleDailyCountLargerThanBank(t *testing.T) {
	got := app.SampleDaily(numberedBank(5), "2024-01-01", 10)
	require.Len(t, got, 5)
	assert.Equal(t, []string{"q1", "q5", "q4", "q2", "q3"}, ids(got))
}

func TestSampleDailyNonPositiveCount(t *testing.T) {
	assert.Empty(t, app.SampleDaily(numberedBank(5), "2024-01-01", 0))
	assert.Empty(t, app.SampleDaily(numberedBank(5), "2024-01-01", -3))
}

func TestDailySeed(t *testing.T) {
	assert.EqualValues(t, 484, app.DailySeed("2024-01-01"))
	assert.EqualValues(t, 493, app.DailySeed("2026-10-17"))
}

func TestSampleRandomRespectsCountAndPool(t *testing.T) {
	sampler := app.NewSampler(rand.New(rand.NewSource(7)))
	bank := numberedBank(12)

	got := sampler.SampleRandom(bank, 5, app.Filter{})
	assert.Len(t, got, 5)
	assertUnique(t, got)

	got = sampler.SampleRandom(bank, 50, app.Filter{})
	assert.Len(t, got, 12)
	assertUnique(t, got)

	assert.Empty(t, sampler.SampleRandom(bank, 0, app.Filter{}))
}

func TestSampleRandomCategory(t *testing.T) {
	sampler := app.NewSampler(rand.New(rand.NewSource(7)))
	bank := numberedBank(24)

	got := sampler.SampleRandom(bank, 10, app.Filter{Category: domain.CategoryQuotes})
	require.Len(t, got, app.CategoryQuestionCount(bank, domain.CategoryQuotes))
	for _, q := range got {
		assert.Equal(t, domain.CategoryQuotes, q.Category)
	}
}

func TestSampleRandomFansOnlyNeverExceedsPool(t *testing.T) {
	bank := numberedBank(9)
	for seed := int64(0); seed < 50; seed++ {
		sampler := app.NewSampler(rand.New(rand.NewSource(seed)))
		got := sampler.SampleRandom(bank, 20, app.Filter{FansOnly: true})
		require.Len(t, got, 9)
		assertUnique(t, got)
	}
}

func TestSampleRandomFansOnlyFavoursHarderQuestions(t *testing.T) {
	// one easy and one hard question; hard is replicated twice so it leads
	// roughly two thirds of the time
	bank := []domain.Question{
		question("easy", domain.CategoryPlot, domain.DifficultyEasy, 1, 0),
		question("hard", domain.CategoryPlot, domain.DifficultyHard, 3, 0),
	}
	sampler := app.NewSampler(rand.New(rand.NewSource(42)))
	hardFirst := 0
	const runs = 3000
	for i := 0; i < runs; i++ {
		if sampler.SampleRandom(bank, 1, app.Filter{FansOnly: true})[0].ID == "hard" {
			hardFirst++
		}
	}
	assert.InDelta(t, 2.0/3.0, float64(hardFirst)/runs, 0.05)
}

// Scenario A: a one-question bank, answered correctly, scores 1 and leaves
// the player on the lowest rank.
func TestScenarioSingleEasyQuestion(t *testing.T) {
	bank := []domain.Question{question("only", domain.CategoryCharacters, domain.DifficultyEasy, 1, 0)}
	got := app.NewSampler(rand.New(rand.NewSource(1))).SampleRandom(bank, 1, app.Filter{})
	require.Len(t, got, 1)

	session := app.NewSession()
	require.NoError(t, session.Start(got, domain.RandomKind{}))
	correct, err := session.SubmitAnswer("only", []int{0})
	require.NoError(t, err)
	assert.True(t, correct)
	assert.Equal(t, 1, session.RunningScore())
	assert.Equal(t, app.FanRanks[0], app.CurrentRank(1))
}

func assertUnique(t *testing.T, qs []domain.Question) {
	t.Helper()
	seen := map[string]bool{}
	for _, q := range qs {
		assert.False(t, seen[q.ID], "duplicate question %s", q.ID)
		seen[q.ID] = true
	}
}

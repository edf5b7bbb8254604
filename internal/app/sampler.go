package app

import (
	"math"
	"math/rand"

	"ranczo-quiz/internal/domain"
)

// Daily shuffle constants. Every client derives the same daily quiz from
// them, so they must never change.
const (
	dailyMultiplier = 9301
	dailyIncrement  = 49297
	dailyModulus    = 233280
)

// Filter narrows random sampling.
type Filter struct {
	// Category restricts the pool when non-empty.
	Category domain.Category
	// FansOnly biases the pool towards harder questions (hard:medium:easy = 2:2:1).
	FansOnly bool
}

// Sampler draws ordered question lists from a bank.
type Sampler struct {
	rnd *rand.Rand
}

func NewSampler(rnd *rand.Rand) *Sampler {
	return &Sampler{rnd: rnd}
}

// SampleRandom returns up to count questions from the bank in random order.
func (s *Sampler) SampleRandom(bank []domain.Question, count int, filter Filter) []domain.Question {
	if count <= 0 {
		return []domain.Question{}
	}

	pool := make([]domain.Question, 0, len(bank))
	for _, q := range bank {
		if filter.Category != "" && q.Category != filter.Category {
			continue
		}
		pool = append(pool, q)
	}

	if filter.FansOnly {
		pool = weightByDifficulty(pool)
	}

	s.rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	// Replicas only raise the odds of an early position; keep the first one.
	seen := make(map[string]struct{}, len(pool))
	out := make([]domain.Question, 0, min(count, len(pool)))
	for _, q := range pool {
		if len(out) == count {
			break
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

func weightByDifficulty(pool []domain.Question) []domain.Question {
	var hard, medium, easy []domain.Question
	for _, q := range pool {
		switch q.Difficulty {
		case domain.DifficultyHard:
			hard = append(hard, q)
		case domain.DifficultyMedium:
			medium = append(medium, q)
		default:
			easy = append(easy, q)
		}
	}
	weighted := make([]domain.Question, 0, 2*len(hard)+2*len(medium)+len(easy))
	weighted = append(weighted, hard...)
	weighted = append(weighted, hard...)
	weighted = append(weighted, medium...)
	weighted = append(weighted, medium...)
	weighted = append(weighted, easy...)
	return weighted
}

// SampleDaily returns the first count questions of the bank shuffled with the
// seed derived from date (YYYY-MM-DD). Same date and bank order, same result.
func SampleDaily(bank []domain.Question, date string, count int) []domain.Question {
	if count <= 0 {
		return []domain.Question{}
	}
	pool := make([]domain.Question, len(bank))
	copy(pool, bank)

	seed := DailySeed(date)
	for i := len(pool) - 1; i > 0; i-- {
		seed = (seed*dailyMultiplier + dailyIncrement) % dailyModulus
		// float64 on purpose: matches clients that compute this in IEEE doubles.
		j := int(math.Floor(float64(seed) / dailyModulus * float64(i+1)))
		pool[i], pool[j] = pool[j], pool[i]
	}

	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}

// DailySeed sums the character codes of the date string.
func DailySeed(date string) int64 {
	var seed int64
	for _, r := range date {
		seed += int64(r)
	}
	return seed
}

// CategoryQuestionCount counts bank questions tagged with category.
func CategoryQuestionCount(bank []domain.Question, category domain.Category) int {
	n := 0
	for _, q := range bank {
		if q.Category == category {
			n++
		}
	}
	return n
}

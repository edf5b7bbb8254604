package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ranczo-quiz/internal/domain"

	"golang.org/x/sync/singleflight"
)

// BankLoader fetches the question bank from a backing store (embedded YAML,
// Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context) ([]domain.Question, error)
}

// BankRepository caches the bank with a TTL so sampling does not hit the
// backing store for every session.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	expiresAt time.Time
	loaded    bool
}

// NewBankRepository caches loader's bank. A ttl <= 0 caches forever.
func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) Questions(ctx context.Context) ([]domain.Question, error) {
	if qs, ok := r.cached(r.clock()); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do("bank", func() (interface{}, error) {
		now := r.clock()
		if qs, ok := r.cached(now); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadBank(ctx)
		if err != nil {
			return nil, err
		}
		if len(qs) == 0 {
			return nil, domain.ErrBankEmpty
		}

		ttl := r.ttlWithJitter()
		r.mu.Lock()
		r.questions = qs
		r.loaded = true
		if ttl > 0 {
			r.expiresAt = now.Add(ttl)
		} else {
			r.expiresAt = time.Time{}
		}
		r.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// invalidate drops the cached bank.
func (r *BankRepository) invalidate() {
	r.mu.Lock()
	r.loaded = false
	r.questions = nil
	r.mu.Unlock()
}

func (r *BankRepository) cached(now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, false
	}
	if !r.expiresAt.IsZero() && !r.expiresAt.After(now) {
		return nil, false
	}
	return r.questions, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader serves a fixed question list (tests, demos).
type StaticBankLoader struct {
	questions []domain.Question
}

func NewStaticBankLoader(questions []domain.Question) *StaticBankLoader {
	return &StaticBankLoader{questions: questions}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) ([]domain.Question, error) {
	if len(l.questions) == 0 {
		return nil, domain.ErrBankEmpty
	}
	return l.questions, nil
}

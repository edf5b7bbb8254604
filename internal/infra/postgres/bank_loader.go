package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"ranczo-quiz/internal/bank"
	"ranczo-quiz/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads question JSONB rows from Postgres in bank order.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM questions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	var raws [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bank: %w", err)
	}
	return decodeBank(raws)
}

// decodeBank parses stored rows and applies the same checks as the YAML bank,
// so hand-edited rows cannot reach the evaluator.
func decodeBank(raws [][]byte) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := bank.Validate(questions); err != nil {
		return nil, fmt.Errorf("stored bank: %w", err)
	}
	return questions, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"ranczo-quiz/internal/domain"

	"github.com/uptrace/bun"
)

// QuestionRow is the questions table row.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID       string          `bun:"id,pk"`
	Position int             `bun:"position,notnull"`
	Data     json.RawMessage `bun:"data,type:jsonb,notnull"`
}

// SeedBank replaces the stored bank with questions, keeping their order.
func SeedBank(ctx context.Context, db *bun.DB, questions []domain.Question) error {
	rows := make([]QuestionRow, 0, len(questions))
	for i, q := range questions {
		raw, err := json.Marshal(q)
		if err != nil {
			return fmt.Errorf("encode question %s: %w", q.ID, err)
		}
		rows = append(rows, QuestionRow{ID: q.ID, Position: i, Data: raw})
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*QuestionRow)(nil)).Where("TRUE").Exec(ctx); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

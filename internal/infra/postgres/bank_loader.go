package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketing-quiz-service/internal/bank"
	"marketing-quiz-service/internal/domain"
)

// BankLoader loads question banks stored as JSONB in the quizzes table.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, quizID string) (domain.QuestionBank, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, quizID)
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load quiz: %w", err)
	}
	var b domain.QuestionBank
	if err := json.Unmarshal(raw, &b); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	if b.ID == "" {
		b.ID = quizID
	}
	if err := bank.Validate(b); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("quiz %s: %w", quizID, err)
	}
	return b, nil
}

// SaveBank upserts b under its id.
func (l *BankLoader) SaveBank(ctx context.Context, b domain.QuestionBank) error {
	if err := bank.Validate(b); err != nil {
		return err
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO quizzes (id, data, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		b.ID, raw)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}

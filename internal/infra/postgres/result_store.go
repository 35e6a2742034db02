package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"marketing-quiz-service/internal/domain"
)

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// ResultStore implements app.ResultStore on the quiz_results table. Inserts
// are announced by the table's NOTIFY trigger, see Listener.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Exists(ctx context.Context, rollNumber string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*ResultRow)(nil)).
		Where("roll_number = ?", rollNumber).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return exists, nil
}

func (s *ResultStore) Insert(ctx context.Context, record *domain.ResultRecord) error {
	row := rowFromRecord(*record)
	_, err := s.db.NewInsert().
		Model(row).
		ExcludeColumn("id").
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return domain.ErrDuplicateRollNumber
		}
		return fmt.Errorf("insert result: %w", err)
	}
	record.ID = row.ID
	record.CreatedAt = row.CreatedAt
	return nil
}

func (s *ResultStore) Top(ctx context.Context, n int) ([]domain.ResultRecord, error) {
	var rows []ResultRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("score DESC").
		Limit(n).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top results: %w", err)
	}
	return records(rows), nil
}

func (s *ResultStore) ByRoll(ctx context.Context, rollNumber string) (domain.ResultRecord, error) {
	var row ResultRow
	err := s.db.NewSelect().
		Model(&row).
		Where("roll_number = ?", rollNumber).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ResultRecord{}, domain.ErrResultNotFound
	}
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("result by roll: %w", err)
	}
	return row.record(), nil
}

func (s *ResultStore) All(ctx context.Context) ([]domain.ResultRecord, error) {
	var rows []ResultRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return records(rows), nil
}

package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"marketing-quiz-service/internal/domain"
)

// ResultRow maps the quiz_results table.
type ResultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:qr"`

	ID         int64     `bun:"id,pk,autoincrement"`
	FullName   string    `bun:"full_name,notnull"`
	EmailID    string    `bun:"email_id,notnull"`
	RollNumber string    `bun:"roll_number,notnull,unique"`
	Score      int       `bun:"score,notnull"`
	Percentage int       `bun:"percentage,notnull"`
	Badge      string    `bun:"badge,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func rowFromRecord(r domain.ResultRecord) *ResultRow {
	return &ResultRow{
		ID:         r.ID,
		FullName:   r.FullName,
		EmailID:    r.EmailID,
		RollNumber: r.RollNumber,
		Score:      r.Score,
		Percentage: r.Percentage,
		Badge:      string(r.Badge),
		CreatedAt:  r.CreatedAt,
	}
}

func (r ResultRow) record() domain.ResultRecord {
	return domain.ResultRecord{
		ID:         r.ID,
		FullName:   r.FullName,
		EmailID:    r.EmailID,
		RollNumber: r.RollNumber,
		Score:      r.Score,
		Percentage: r.Percentage,
		Badge:      domain.Badge(r.Badge),
		CreatedAt:  r.CreatedAt,
	}
}

func records(rows []ResultRow) []domain.ResultRecord {
	out := make([]domain.ResultRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out
}

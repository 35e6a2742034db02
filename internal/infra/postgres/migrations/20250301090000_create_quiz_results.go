package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS quiz_results (
					id          BIGSERIAL PRIMARY KEY,
					full_name   TEXT NOT NULL,
					email_id    TEXT NOT NULL,
					roll_number TEXT NOT NULL,
					score       INTEGER NOT NULL,
					percentage  INTEGER NOT NULL,
					badge       TEXT NOT NULL,
					created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_quiz_results_roll_number ON quiz_results(roll_number);
				CREATE INDEX IF NOT EXISTS idx_quiz_results_score ON quiz_results(score DESC);
			`); err != nil {
				return fmt.Errorf("failed to create quiz_results table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE OR REPLACE FUNCTION notify_quiz_results_insert() RETURNS trigger AS $$
				BEGIN
					PERFORM pg_notify('quiz_results_insert', json_build_object('rollNumber', NEW.roll_number)::text);
					RETURN NEW;
				END;
				$$ LANGUAGE plpgsql;

				DROP TRIGGER IF EXISTS quiz_results_insert_notify ON quiz_results;
				CREATE TRIGGER quiz_results_insert_notify
					AFTER INSERT ON quiz_results
					FOR EACH ROW EXECUTE FUNCTION notify_quiz_results_insert();
			`); err != nil {
				return fmt.Errorf("failed to create quiz_results notify trigger: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TRIGGER IF EXISTS quiz_results_insert_notify ON quiz_results;
				DROP FUNCTION IF EXISTS notify_quiz_results_insert();
				DROP TABLE IF EXISTS quiz_results;
			`); err != nil {
				return fmt.Errorf("failed to drop quiz_results: %w", err)
			}
			return nil
		})
	})
}

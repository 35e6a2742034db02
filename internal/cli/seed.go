package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/bank"
	"marketing-quiz-service/internal/infra/postgres"
	redisinfra "marketing-quiz-service/internal/infra/redis"
)

// NewSeedCmd stores a question bank in the quizzes table.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Store a question bank in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.Postgres.URL == "" {
				return errNoPostgres
			}

			qb := bank.Marketing()
			if file != "" {
				if qb, err = bank.LoadFile(file); err != nil {
					return err
				}
			}

			b, err := openBackends(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer b.close()

			loader := postgres.NewBankLoader(b.pool)
			if err := loader.SaveBank(ctx, qb); err != nil {
				return err
			}
			if b.redis != nil {
				cache := redisinfra.NewBankRepository(b.redis, loader, 0)
				if err := cache.Invalidate(ctx, qb.ID); err != nil {
					log.Warn("bank cache invalidation failed", zap.Error(err))
				}
			}
			log.Info("question bank stored", zap.String("quiz_id", qb.ID), zap.Int("questions", qb.Len()))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML bank file (default: bundled marketing bank)")
	return cmd
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/app"
	"marketing-quiz-service/internal/certificate"
	"marketing-quiz-service/internal/domain"
	"marketing-quiz-service/internal/export"
)

// withService runs fn against a service built from the config at path.
// Stored results live in Postgres; an in-process store would always be empty
// here, so a missing URL is an error.
func withService(ctx context.Context, path string, fn func(context.Context, *app.QuizService, *zap.Logger) error) error {
	cfg, log, err := loadConfig(path)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if cfg.Postgres.URL == "" {
		return errNoPostgres
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	service, err := b.service(nil)
	if err != nil {
		return err
	}
	return fn(ctx, service, log)
}

// NewLeaderboardCmd prints the current top results.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the current leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), *configPath, func(ctx context.Context, s *app.QuizService, _ *zap.Logger) error {
				lb, err := s.Leaderboard(ctx)
				if err != nil {
					return err
				}
				return printLeaderboard(cmd.OutOrStdout(), lb)
			})
		},
	}
}

func printLeaderboard(w io.Writer, lb domain.Leaderboard) error {
	if len(lb.Entries) == 0 {
		_, err := fmt.Fprintln(w, "no results yet")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tROLL\tSCORE\tPERCENT\tBADGE")
	for _, e := range lb.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d%%\t%s\n", e.Rank, e.FullName, e.RollNumber, e.Score, e.Percentage, e.Badge)
	}
	return tw.Flush()
}

// NewCertificateCmd renders the certificate for a stored result.
func NewCertificateCmd(configPath *string) *cobra.Command {
	var roll, out string
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Render the certificate PNG for a roll number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = certificate.FileName(roll)
			}
			return withService(cmd.Context(), *configPath, func(ctx context.Context, s *app.QuizService, log *zap.Logger) error {
				cert, err := s.StoredCertificate(ctx, roll)
				if err != nil {
					return err
				}
				if err := writeFile(out, func(w io.Writer) error { return certificate.Render(w, cert) }); err != nil {
					return err
				}
				log.Info("certificate written", zap.String("roll_number", roll), zap.String("path", out))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&roll, "roll", "", "roll number of the result")
	cmd.Flags().StringVar(&out, "out", "", "output file (default Certificate_<roll>.png)")
	_ = cmd.MarkFlagRequired("roll")
	return cmd
}

// NewExportCmd writes every stored result to a spreadsheet.
func NewExportCmd(configPath *string) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all results to an XLSX file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), *configPath, func(ctx context.Context, s *app.QuizService, log *zap.Logger) error {
				records, err := s.Results(ctx)
				if err != nil {
					return err
				}
				if err := writeFile(out, func(w io.Writer) error { return export.WriteXLSX(w, records) }); err != nil {
					return err
				}
				log.Info("results exported", zap.Int("rows", len(records)), zap.String("path", out))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&out, "out", "quiz-results.xlsx", "output file")
	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

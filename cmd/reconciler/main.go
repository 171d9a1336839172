package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bhulekh-reconcile/internal/config"
	"github.com/bhulekh-reconcile/internal/logging"
	"github.com/bhulekh-reconcile/internal/match"
	"github.com/bhulekh-reconcile/internal/store"
	"github.com/bhulekh-reconcile/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Server.Env)

	rootCmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Land parcel record reconciliation service",
		Long:  `Reconciles digitized cadastral parcels against transcribed land register records and manages verification of the resulting matches`,
	}

	rootCmd.AddCommand(serveCmd(cfg, log))
	rootCmd.AddCommand(matchCmd(cfg, log))
	rootCmd.AddCommand(statsCmd(cfg, log))

	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

// openStore connects to the database and ensures the schema exists.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func serveCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return web.NewServer(cfg, st, log).Start()
		},
	}
}

func matchCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	var (
		village   string
		algorithm string
		tolerance float64
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run a reconciliation batch against the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			alg, err := match.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			parcels, err := st.Parcels(ctx, village)
			if err != nil {
				return err
			}
			records, err := st.TextRecords(ctx, village)
			if err != nil {
				return err
			}

			engine := match.NewEngine(
				cfg.Matching.Scorer(alg, tolerance),
				cfg.Matching.Classifier(),
				cfg.Matching.Workers,
			)
			result := engine.Run(parcels, records)

			if !dryRun {
				if _, err := st.InsertMatches(ctx, alg, result.Candidates); err != nil {
					return err
				}
			}

			log.Info().
				Str("algorithm", string(alg)).
				Int("parcels", result.Summary.TotalParcels).
				Int("records", result.Summary.TotalRecords).
				Int("matched", result.Summary.ByStatus[match.StatusMatched]).
				Int("partial", result.Summary.ByStatus[match.StatusPartial]).
				Int("mismatch", result.Summary.ByStatus[match.StatusMismatch]).
				Dur("duration", result.Summary.ProcessingTime).
				Bool("dry_run", dryRun).
				Msg("reconciliation run completed")
			return nil
		},
	}

	cmd.Flags().StringVar(&village, "village", "", "restrict the run to one village")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "matching algorithm (levenshtein, jaro_winkler, cosine, combined)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "area tolerance percentage override")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run matching without persisting results")

	return cmd
}

func statsCmd(cfg *config.Config, log zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print match statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			stats, err := st.StatusCounts(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Total matches: %d\n", stats.Total)
			for status, count := range stats.ByStatus {
				fmt.Printf("  %-10s %d\n", status, count)
			}
			fmt.Printf("Average score: %.2f\n", stats.AverageScore)
			return nil
		},
	}
}

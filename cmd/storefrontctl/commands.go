package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/middleware"
	"storefront/internal/pricing"
	"storefront/internal/usecase"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and unique indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, closeFn, err := openEnv()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := db.Migrate(e.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			e.log.Info().Msg("migration finished")
			return nil
		},
	}
}

func prefetchCmd() *cobra.Command {
	var itemsPath string

	cmd := &cobra.Command{
		Use:   "prefetch",
		Short: "Prefetch vendor prices for the variants listed in a YAML file",
		Long: `Prefetch vendor prices in batches of 5 with a circuit breaker.

Example items file:
  items:
    - product_id: poster
      option_ids: [size-a3, paper-matte]`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := pricing.LoadItems(itemsPath)
			if err != nil {
				return err
			}
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			p := pricing.NewPrefetcher(
				pricing.NewHTTPVendorClient(cfg.PriceVendorURL, cfg.PriceVendorAPIKey, cfg.ProviderTimeout, cfg.PriceVendorRPS),
				pricing.NewMemoryCache(),
				pricing.NewCircuitBreaker(pricing.DefaultFailureThreshold, pricing.DefaultCooldown, pricing.SystemClock{}),
				log,
			)
			report := p.Run(cmd.Context(), items)
			return printJSON(report)
		},
	}

	cmd.Flags().StringVar(&itemsPath, "items", "", "path to the items YAML file")
	_ = cmd.MarkFlagRequired("items")
	return cmd
}

func causesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "causes",
		Short: "Inspect and repair cause totals",
	}
	cmd.AddCommand(causeShowCmd())
	cmd.AddCommand(causeRecalcCmd())
	return cmd
}

func causeShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [cause-id]",
		Short: "Show a cause with its milestone progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid cause id %q", args[0])
			}
			uc, closeFn, err := newCauseUsecase()
			if err != nil {
				return err
			}
			defer closeFn()

			out, err := uc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func causeRecalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc [cause-id]",
		Short: "Replace raised_cents with the sum of recorded donations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid cause id %q", args[0])
			}
			uc, closeFn, err := newCauseUsecase()
			if err != nil {
				return err
			}
			defer closeFn()

			out, err := uc.Recalculate(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func adminTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Issue a bearer token for the /admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			tok, exp, err := middleware.IssueAdminToken([]byte(cfg.JWTSecret), subject, ttl, time.Now())
			if err != nil {
				return err
			}
			return printJSON(map[string]string{
				"token":      tok,
				"expires_at": exp.UTC().Format(time.RFC3339),
			})
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "ops", "admin subject written to the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")
	return cmd
}

func newCauseUsecase() (*usecase.CauseUsecase, func(), error) {
	e, closeFn, err := openEnv()
	if err != nil {
		return nil, nil, err
	}
	uc := usecase.NewCauseUsecase(
		infraRepo.NewTxManagerGorm(e.db),
		infraRepo.NewCauseGormRepository(e.db),
		e.cfg.MilestoneGoalCents,
		e.log,
	)
	return uc, closeFn, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakeforge/etl/pkg/config"
	"github.com/lakeforge/etl/pkg/health"
	"github.com/lakeforge/etl/pkg/log"
	"github.com/lakeforge/etl/pkg/metrics"
	"github.com/lakeforge/etl/pkg/pipeline"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "latticed",
	Short:   "LatticeFlow daemon and job runner",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("latticed version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", true, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config-root", "./config", "Tenant configuration root directory")
	cobra.OnInitialize(initLogging)

	jobCmd.AddCommand(jobRunCmd, jobListCmd)
	tenantCmd.AddCommand(tenantListCmd, tenantShowCmd)

	rootCmd.AddCommand(serveCmd, jobCmd, tenantCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func resolverFromFlags(cmd *cobra.Command) *config.Resolver {
	root, _ := cmd.Flags().GetString("config-root")
	return config.NewResolver(root)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the latticed daemon, exposing /healthz, /readyz and /metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := resolverFromFlags(cmd)
		pool := pipeline.NewDBPool()
		collector := metrics.NewCollector(pool)
		collector.Start()
		defer collector.Stop()

		metrics.RegisterComponent("config", true, "resolver ready")
		metrics.RegisterComponent("db_pool", true, "pool initialized")

		entries, err := resolver.ListTenants(false)
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}
		metrics.TenantsTotal.Set(float64(len(entries)))
		log.Logger.Info().Int("tenants", len(entries)).Msg("latticed starting")

		var monitors []*health.Monitor
		for _, e := range entries {
			if e.Disabled {
				continue
			}
			t, err := resolver.Get(e.Slug)
			if err != nil {
				log.Logger.Error().Err(err).Str("tenant", e.Slug).Msg("resolving tenant for health check")
				continue
			}
			component := "starrocks_" + e.Slug
			checker := health.NewTCPChecker(fmt.Sprintf("%s:%d", t.StarRocks.Host, t.StarRocks.QueryPort))
			mon := health.NewMonitor(component, checker, health.DefaultConfig(), func(name string, status health.Status) {
				metrics.UpdateComponent(name, status.Healthy, status.LastResult.Message)
			})
			mon.Start()
			monitors = append(monitors, mon)
		}
		defer func() {
			for _, mon := range monitors {
				mon.Stop()
			}
		}()

		mux := http.NewServeMux()
		mux.Handle("/healthz", metrics.HealthHandler())
		mux.Handle("/readyz", metrics.ReadyHandler())
		mux.Handle("/livez", metrics.LivenessHandler())
		mux.Handle("/metrics", metrics.Handler())

		addr := ":8090"
		srv := &http.Server{Addr: addr, Handler: mux}

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		log.Logger.Info().Str("addr", addr).Msg("latticed http server listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return err
			}
		case <-sigCh:
			log.Logger.Info().Msg("shutdown signal received")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			if err := pool.Close(); err != nil {
				log.Logger.Error().Err(err).Msg("closing db pools")
			}
		}
		return nil
	},
}

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Run or list LatticeFlow jobs",
}

// jobNames maps a job name to a closure taking the --table flag value
// (ignored by the dimension jobs, required by morning_fact_incremental
// per spec.md §6.6's single-table signature).
var jobNames = map[string]func(r *pipeline.Runner, ctx context.Context, table string) (pipeline.JobOutcome, error){
	"evening_dimension_refresh": func(r *pipeline.Runner, ctx context.Context, _ string) (pipeline.JobOutcome, error) {
		return r.EveningDimensionRefresh(ctx)
	},
	"morning_dimension_incremental": func(r *pipeline.Runner, ctx context.Context, _ string) (pipeline.JobOutcome, error) {
		return r.MorningDimensionIncremental(ctx)
	},
	"morning_fact_incremental": func(r *pipeline.Runner, ctx context.Context, table string) (pipeline.JobOutcome, error) {
		if table == "" {
			return pipeline.JobOutcome{}, fmt.Errorf("morning_fact_incremental requires --table")
		}
		return r.MorningFactIncremental(ctx, table)
	},
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known job names",
	RunE: func(cmd *cobra.Command, args []string) error {
		for name := range jobNames {
			fmt.Println(name)
		}
		return nil
	},
}

var jobRunCmd = &cobra.Command{
	Use:   "run <job-name>",
	Short: "Run a named job for one tenant (or every enabled tenant)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobName := args[0]
		run, ok := jobNames[jobName]
		if !ok {
			return fmt.Errorf("unknown job %q", jobName)
		}
		tenantSlug, _ := cmd.Flags().GetString("tenant")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		workDir, _ := cmd.Flags().GetString("work-dir")
		table, _ := cmd.Flags().GetString("table")

		resolver := resolverFromFlags(cmd)
		var slugs []string
		if tenantSlug != "" {
			slugs = []string{tenantSlug}
		} else {
			entries, err := resolver.ListTenants(false)
			if err != nil {
				return err
			}
			for _, e := range entries {
				slugs = append(slugs, e.Slug)
			}
		}

		pool := pipeline.NewDBPool()
		defer pool.Close()

		tp := &pipeline.TenantPool{MaxConcurrent: concurrency}
		results := tp.Run(context.Background(), slugs, func(ctx context.Context, slug string) (pipeline.JobOutcome, error) {
			t, err := resolver.Get(slug)
			if err != nil {
				return pipeline.JobOutcome{}, err
			}
			db, err := pool.Acquire(ctx, t)
			if err != nil {
				return pipeline.JobOutcome{}, err
			}
			runner, err := pipeline.NewRunner(ctx, t, db, workDir)
			if err != nil {
				return pipeline.JobOutcome{}, err
			}
			return run(runner, ctx, table)
		})

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
				fmt.Printf("%s: FAILED: %v\n", r.Tenant, r.Err)
				continue
			}
			fmt.Printf("%s: %s\n", r.Tenant, r.Outcome.Status)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d tenant runs failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	jobRunCmd.Flags().String("tenant", "", "run for a single tenant slug (default: every enabled tenant)")
	jobRunCmd.Flags().Int("concurrency", 1, "max tenants processed concurrently")
	jobRunCmd.Flags().String("work-dir", os.TempDir(), "local staging directory for downloaded blobs")
	jobRunCmd.Flags().String("table", "", "fact table to load (required for morning_fact_incremental)")
}

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Inspect tenant configuration",
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants in the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := resolverFromFlags(cmd).ListTenants(true)
		if err != nil {
			return err
		}
		for _, e := range entries {
			status := "enabled"
			if e.Disabled {
				status = "disabled"
			}
			fmt.Printf("%-20s %-8s priority=%d\n", e.Slug, status, e.SchedulePriority)
		}
		return nil
	},
}

var tenantShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show one tenant's resolved configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolverFromFlags(cmd).Get(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("slug:     %s\n", t.Slug)
		fmt.Printf("provider: %s\n", t.StorageProvider)
		fmt.Printf("database: %s\n", t.StarRocks.Database)
		var tables []string
		for name, schema := range t.Tables {
			tables = append(tables, fmt.Sprintf("%s (%s)", name, schema.Kind))
		}
		fmt.Printf("tables:   %v\n", tables)
		return nil
	},
}

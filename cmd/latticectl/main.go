package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lakeforge/etl/pkg/config"
	"github.com/lakeforge/etl/pkg/log"
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
	Use:     "latticectl",
	Short:   "LatticeFlow operator CLI",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("latticectl version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config-root", "./config", "Tenant configuration root directory")
	cobra.OnInitialize(func() {
		level, _ := rootCmd.PersistentFlags().GetString("log-level")
		log.Init(log.Config{Level: log.Level(level), JSONOutput: false})
	})

	seedLoadCmd.Flags().String("table", "", "load only this table's seed file (default: every *.csv in seed-dir)")

	schemaCmd.AddCommand(schemaApplyCmd)
	seedCmd.AddCommand(seedLoadCmd)
	rootCmd.AddCommand(schemaCmd, seedCmd)
}

func resolverFromFlags(cmd *cobra.Command) *config.Resolver {
	root, _ := cmd.Flags().GetString("config-root")
	return config.NewResolver(root)
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect live table schemas",
}

var schemaApplyCmd = &cobra.Command{
	Use:   "apply <tenant-slug> <table>",
	Short: "Fetch a table's live schema and report its column order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, table := args[0], args[1]
		t, err := resolverFromFlags(cmd).Get(slug)
		if err != nil {
			return err
		}
		pool := pipeline.NewDBPool()
		defer pool.Close()
		db, err := pool.Acquire(context.Background(), t)
		if err != nil {
			return err
		}
		runner, err := pipeline.NewRunner(context.Background(), t, db, os.TempDir())
		if err != nil {
			return err
		}
		live, err := runner.FetchLiveSchema(context.Background(), t.StarRocks.Database, table)
		if err != nil {
			return err
		}
		for _, col := range live.ColumnOrder() {
			fmt.Println(col)
		}
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load reference/bootstrap data",
}

var seedLoadCmd = &cobra.Command{
	Use:   "load <tenant-slug> <seed-dir>",
	Short: "Load <table>.csv seed file(s) in seed-dir for one tenant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, seedDir := args[0], args[1]
		table, _ := cmd.Flags().GetString("table")
		t, err := resolverFromFlags(cmd).Get(slug)
		if err != nil {
			return err
		}
		pool := pipeline.NewDBPool()
		defer pool.Close()
		ctx := context.Background()
		db, err := pool.Acquire(ctx, t)
		if err != nil {
			return err
		}
		runner, err := pipeline.NewRunner(ctx, t, db, os.TempDir())
		if err != nil {
			return err
		}
		outcome, err := runner.SeedLoad(ctx, seedDir, table)
		if err != nil {
			return err
		}
		for table, o := range outcome.PerTable {
			status := "ok"
			if o.Err != nil {
				status = o.Err.Error()
			}
			fmt.Printf("%-24s rows=%-6d %s\n", table, o.Result.RowsLoaded, status)
		}
		if outcome.Status == pipeline.JobFailure {
			return fmt.Errorf("seed load failed for tenant %s", slug)
		}
		return nil
	},
}

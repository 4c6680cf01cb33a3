package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"meal-planner/internal/app"
	"meal-planner/internal/config"
	"meal-planner/internal/database"
	"meal-planner/internal/ghost"
	"meal-planner/internal/llm"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

// env holds what every command needs once the root command has run.
type env struct {
	cfg *config.Config
	db  *database.DB
	gen llm.TextGenerator
	app *app.App
}

var current env

var rootCmd = &cobra.Command{
	Use:   "meal-planner",
	Short: "Plans meals and builds grocery lists from a recipe catalog",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			log.Printf("Warning: failed to read .env: %v", err)
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		gen, err := llm.NewFromConfig(cmd.Context(), cfg)
		if err != nil {
			db.Close()
			return fmt.Errorf("failed to initialize LLM client: %w", err)
		}

		var ghostClient ghost.Client
		if cfg.RequireGhost() == nil {
			ghostClient = ghost.NewClient(cfg)
		}

		current = env{cfg: cfg, db: db, gen: gen, app: app.New(cfg, db.SQL, gen, ghostClient)}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current.gen != nil {
			if err := llm.Close(current.gen); err != nil {
				log.Printf("Warning: %v", err)
			}
		}
		if current.db != nil {
			return current.db.Close()
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (environment variables win over it)")

	rootCmd.AddCommand(
		groceryCmd(),
		plansCmd(),
		storesCmd(),
		organizeCmd(),
		publishCmd(),
		seedCmd(),
		exportCmd(),
		importGhostCmd(),
		clipCmd(),
		metricsCleanupCmd(),
	)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

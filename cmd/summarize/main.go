package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"techdocs-chat/internal/di"
	"techdocs-chat/internal/domain"
	"techdocs-chat/internal/infra"
	"techdocs-chat/internal/infra/config"
)

var (
	version = "dev"

	verbose      bool
	technologyID string
	focusQuery   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "summarize",
	Short:   "Summarize a technology's indexed documentation",
	Version: version,
	Long: `Summarize condenses every indexed chunk of one technology's
documentation into a single coherent summary, using the same map-reduce
engine as the chat service.

Examples:
  # Summarize everything indexed for a technology
  summarize --technology-id 6f1e...

  # Focus the summary on one topic
  summarize --technology-id 6f1e... --focus "networking model"`,
	RunE: runSummarize,
}

func init() {
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.Flags().StringVar(&technologyID, "technology-id", "", "technology to summarize (required)")
	rootCmd.Flags().StringVar(&focusQuery, "focus", "", "optional query to focus the summary on")
	_ = rootCmd.MarkFlagRequired("technology-id")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()
	cfg := config.Load()
	log := newLogger()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	dbPool, err := infra.NewPostgresDB(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer dbPool.Close()

	components, err := di.NewApplicationComponents(cfg, dbPool, log)
	if err != nil {
		return fmt.Errorf("failed to wire components: %w", err)
	}

	chunks, err := components.ChunkStore.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chunks: %w", err)
	}

	summary, err := components.Chat.HandleGeneralQuery(ctx, focusQuery, technologyID, chunks)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no indexed chunks for technology %s", technologyID)
		}
		return err
	}

	fmt.Println(summary)
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

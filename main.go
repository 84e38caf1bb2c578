package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/ivy-assistant/server/internal/agent/bot"
	"github.com/ivy-assistant/server/internal/agent/model"
	"github.com/ivy-assistant/server/internal/agent/repo"
	"github.com/ivy-assistant/server/internal/core"
	pkgdynamo "github.com/ivy-assistant/server/pkg/dynamodb"
	logx "github.com/ivy-assistant/server/pkg/logger"
	pkgredis "github.com/ivy-assistant/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	StateBackend string `envconfig:"STATE_BACKEND" default:"memory"`
	Redis        pkgredis.Config
	DynamoDB     pkgdynamo.Config

	// Dialog core and providers
	Conversation model.ConversationConfig
	NLU          model.NLUModelConfig
	Fetch        model.FetchConfig
	Weather      model.WeatherConfig
	News         model.NewsConfig
}

var (
	envFile        string
	conversationID string
	userID         string
	position       string
)

var rootCmd = &cobra.Command{
	Use:   "ivy",
	Short: "Ivy - weather, news and jokes assistant",
	Long: `Ivy runs the dialog core locally.

State is kept in the backend selected by STATE_BACKEND (memory, redis or
dynamodb). Without GEMINI_API_KEY the bot stays menu driven.`,
	SilenceUsage: true,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to Ivy on stdin",
	RunE:  runChat,
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay a scripted conversation against the in-memory store",
	RunE:  runDemo,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&conversationID, "conversation", "", "Conversation id (default: random)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User id (default: random)")
	chatCmd.Flags().StringVar(&position, "position", "", `Device position shared with every message, as "lat,lon"`)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the dotenv file and binds the environment, then sets up logging.
func loadConfig() (*AppConfig, error) {
	if err := godotenv.Load(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load %s file: %v\n", envFile, err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	return &cfg, nil
}

// openStore connects the configured state backend. The returned closer is never nil.
func openStore(ctx context.Context, cfg *AppConfig) (repo.Store, io.Closer, error) {
	switch strings.ToLower(cfg.StateBackend) {
	case "", "memory":
		return repo.NewMemoryStore(), noopCloser{}, nil
	case "redis":
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		logx.Info().Msg("Connected to Redis successfully")
		return repo.NewRedisStore(rdb), rdb, nil
	case "dynamodb":
		client, err := cfg.DynamoDB.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialise DynamoDB client: %w", err)
		}
		store, err := repo.NewDynamoStore(client, cfg.DynamoDB.Table)
		if err != nil {
			return nil, nil, err
		}
		logx.Info().Str("table", cfg.DynamoDB.Table).Msg("Using DynamoDB state store")
		return store, noopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STATE_BACKEND %q (want memory, redis or dynamodb)", cfg.StateBackend)
	}
}

func buildRunner(ctx context.Context, cfg *AppConfig, store repo.Store) (bot.Runner, error) {
	return bot.Build(ctx, bot.Config{
		Store:        store,
		Conversation: cfg.Conversation,
		NLU:          cfg.NLU,
		Fetch:        cfg.Fetch,
		Weather:      cfg.Weather,
		News:         cfg.News,
	})
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

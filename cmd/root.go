package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	"github.com/ai-tutor-orchestrator/server/internal/core"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var rootCmd = &cobra.Command{
	Use:           "tutor",
	Short:         "AI tutor orchestrator",
	Long:          "Routes student chat messages to flashcard, note, concept and quiz tool services, adapted to each learner.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tutor", version)
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logx.Error().Err(err).Msg("command failed")
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the optional .env file, binds the environment and initialises logging.
func loadConfig(cmd *cobra.Command) (model.AppConfig, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	envErr := godotenv.Load(envFile)

	var cfg model.AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process environment config: %w", err)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	if envErr != nil {
		logx.Debug().Err(envErr).Str("file", envFile).Msg("no .env file loaded")
	}
	return cfg, nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/logger"
)

var (
	logLevel    string
	configPath  string
	sessionName string

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "promptsmith",
	Short: "Build structured LLM prompts from toggleable sections",
	Long: `promptsmith assembles prompts from an ordered set of sections.

Each section can be enabled, reordered and assigned to the System or User
role. The CLI works on a saved working session (--session), so edits made by
one command are seen by the next.

  promptsmith set task "Summarize the report"
  promptsmith structure move "Task Definition" up
  promptsmith build --mode roles
  promptsmith execute
  promptsmith serve`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		appConfig = cfg

		// Parse and set log level; the flag wins over the config file
		level := cfg.Logging.Level
		if cmd.Flags().Changed("log") || level == "" {
			level = logLevel
		}
		parsed, err := logger.ParseLevel(level)
		if err != nil {
			return err
		}
		logger.SetLevel(parsed)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: .promptsmith.yaml next to the executable)")
	rootCmd.PersistentFlags().StringVar(&sessionName, "session", "current",
		"Working session the command reads and updates")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

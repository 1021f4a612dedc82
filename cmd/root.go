package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/output"
	"github.com/bchakour/tb/internal/session"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui          *output.UI
	apiClient   *client.Client
	userSession *session.Session

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "tb",
	Short: "Task Board - projects, sprints, and tasks from the terminal",
	Long: `tb is a task tracker client for teams working in sprints.
It talks to a Task Board API server, renders the kanban board in your
terminal, and ships with a local development server (tb serve).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/tb/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "tb")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TB")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "tb")

	viper.SetDefault("api.base_url", "http://localhost:8080")
	viper.SetDefault("default_project", "")
	viper.SetDefault("session_path", filepath.Join(defaultConfigDir, "session"))
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "tb.db"))
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The API client is initialized lazily, only when a command actually
	// talks to the server. Config/version commands run offline.
}

// rootRun handles `tb` with no subcommand: show the default project's board.
func rootRun(cmd *cobra.Command) error {
	project := viper.GetString("default_project")
	if project == "" {
		return cmd.Help()
	}
	return boardShowRun(project)
}

// getSession returns the shared session, loading it on first call.
func getSession() (*session.Session, error) {
	if userSession != nil {
		return userSession, nil
	}

	sess, err := session.New(viper.GetString("session_path"))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	userSession = sess
	return userSession, nil
}

// getClient returns the shared API client, initializing it on first call.
func getClient() (*client.Client, error) {
	if apiClient != nil {
		return apiClient, nil
	}

	sess, err := getSession()
	if err != nil {
		return nil, err
	}

	apiClient = client.New(viper.GetString("api.base_url"), sess,
		client.WithOnUnauthorized(func() {
			ui.Warning("Session expired. Run 'tb login' to sign in again")
		}),
	)
	return apiClient, nil
}

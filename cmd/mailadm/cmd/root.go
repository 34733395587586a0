package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Mu0717/email/internal/client"
	"github.com/Mu0717/email/internal/config"
	"github.com/Mu0717/email/internal/session"
)

var (
	cfgFile   string
	homeDir   string
	serverURL string
	verbose   bool
	cfg       *config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mailadm",
	Short: "Mail account administration console",
	Long: `mailadm administers a fleet of OAuth mail accounts against a
backend server: register accounts, batch-verify and import refresh
tokens, tag accounts as sold, and read their inbox and junk folders.

All commands require a configured server URL, either in the config
file or via --server:

  [server]
  url = "https://mail.example.com"`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		var err error
		cfg, err = config.Load(cfgFile, homeDir)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if serverURL != "" {
			cfg.Server.URL = serverURL
		}

		if err := cfg.EnsureHomeDir(); err != nil {
			return fmt.Errorf("create data directory %s: %w", cfg.HomeDir, err)
		}

		return nil
	},
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openSession opens the on-disk credential and account cache.
func openSession() (*session.Store, error) {
	s, err := session.Open(cfg.HomeDir)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return s, nil
}

// openClient builds the backend client bound to the session store so a
// rejected credential is dropped from disk immediately.
func openClient(sessions *session.Store) (*client.Client, error) {
	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("server not configured\n\n" +
			"Configure in ~/.mailadm/config.toml:\n" +
			"  [server]\n" +
			"  url = \"https://mail.example.com\"\n" +
			"  allow_insecure = true  # for plain http on trusted networks\n\n" +
			"or pass --server")
	}
	c, err := client.New(client.Config{
		URL:           cfg.Server.URL,
		AllowInsecure: cfg.Server.AllowInsecure,
		Timeout:       cfg.Timeout(),
	}, sessions)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// requireLogin fails fast when no admin credential is stored.
func requireLogin(sessions *session.Store) error {
	if !sessions.HasCredential() {
		return fmt.Errorf("not logged in, run 'mailadm login' first")
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.mailadm/config.toml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "home directory (overrides MAILADM_HOME)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend server URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

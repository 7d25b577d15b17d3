package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/dataloom/internal/config"
	"github.com/KaramelBytes/dataloom/internal/logging"
	"github.com/KaramelBytes/dataloom/internal/server"
	"github.com/KaramelBytes/dataloom/internal/store"
)

var (
	// Global flags (override config if set)
	cfgFile     string
	debug       bool
	flagPort    int
	flagHost    string
	writeConfig bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "dataloom",
	Short: "DataLoom: upload, summarize and chart tabular data over HTTP",
	Long: `DataLoom serves a small data analysis dashboard API. Upload CSV or Excel files,
inspect summary statistics, build charts and pull tabular data from an external JSON API.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		if writeConfig {
			if err := cfgpkg.Save(cfg, cfgFile); err != nil {
				return err
			}
			path := cfgFile
			if path == "" {
				path = cfgpkg.DefaultPath()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote config to %s\n", path)
			return nil
		}

		log, closeLog, err := logging.Setup(cfg.LogLevel, cfg.SeqURL, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer closeLog()

		var st *store.Store
		if cfg.DBPath != "" {
			st, err = store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			log.Info("activity log enabled", "path", cfg.DBPath)
		}
		if cfg.APIBaseURL == "" {
			log.Warn("API_BASE_URL not set; the API page will report not configured")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.New(cfg, log, st).Run(ctx)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.dataloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "listen port (overrides PORT and config)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "listen host (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&writeConfig, "write-config", false, "write the effective config (without the API key) and exit")
}

// loadConfig reads .env, then config file and environment, then applies
// flag overrides.
func loadConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: failed to read .env: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("port") {
		c.Port = flagPort
	}
	if f.Changed("host") {
		c.Host = flagHost
	}
	if debug {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c
	return nil
}

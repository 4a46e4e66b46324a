// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-agent CLI. It runs the
// research pipeline from the terminal, serves it over HTTP, and reads the
// report history.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/logging"
	"github.com/pdiddy/research-agent/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from the secrets directory at startup.
var loadedSecrets secrets.Secrets

// logger is built in PersistentPreRunE from --log-level and --log-format.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "research-agent",
	Short: "Turn a question into a cited research report",
	Long: `research-agent searches the web for a query, extracts the relevant text
from a handful of sources (finding a replacement when a source fails),
summarizes each one, and writes a structured report with a source list.

Run a query from the terminal with "research", serve the same pipeline over
HTTP with "serve", and browse saved reports with "history".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log_level")
		format, _ := cmd.Flags().GetString("log-format")
		l, err := logging.New(level, logging.Format(format), os.Stderr)
		if err != nil {
			return err
		}
		logger = l

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Debug("loaded secrets", zap.Strings("names", s.Names()))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./research-agent.yaml or ~/.config/research-agent/research-agent.yaml)")
	pf.String("secrets-dir", ".secrets", "directory of API key files (gemini-api-key, tavily-api-key, anthropic-api-key)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log encoding: console or json")
	pf.String("db", "", "report history database path")
	pf.String("search-provider", "", "search provider: tavily or duckduckgo")
	pf.String("ai-provider", "", "model provider: gemini or anthropic")
	pf.String("model", "", "model identifier")

	mustBind("log_level", "log-level")
	mustBind("store.path", "db")
	mustBind("search.provider", "search-provider")
	mustBind("ai.provider", "ai-provider")
	mustBind("ai.model", "model")
}

func mustBind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-agent"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := setDefaults(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, "warning: config defaults:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"atlbrowse/browse"
	"atlbrowse/config"
	"atlbrowse/internal/prompt"
	"atlbrowse/storage"

	"github.com/gookit/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const userAgent = "atlbrowse-cli"

var cfgFile string

// rootCmd starts the interactive session when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "atlbrowse",
	Short: "Browse Jira and Confluence Cloud from an interactive terminal menu.",
	Long: `
**********************************************
*              ATLASSIAN BROWSE              *
**********************************************

Sign in once with your Atlassian email and API token, then list projects,
issues, filters, spaces and documents, walk Confluence page trees, download
page bodies and export project issues to CSV or Excel.

Credentials missing from the config file or ATLBROWSE_* environment variables
are prompted for at startup. The API token is read without echo.
`,
	Example: `
  # Start the interactive menu
  atlbrowse

  # Keep the token out of the config file
  ATLBROWSE_ATLASSIAN_TOKEN=... atlbrowse

  # Create configuration file
  atlbrowse config create

  # Show downloaded pages
  atlbrowse history
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			color.Disable()
		}
		return runSession(cmd.Context(), cfg, prompt.NewStdio(), os.Stderr)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints a command failure. Rejected credentials were already
// reported by the session.
func reportError(w io.Writer, err error) {
	if errors.Is(err, browse.ErrInvalidCredentials) {
		return
	}
	fmt.Fprintln(w, "Error:", err)
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.atlbrowse.yaml, then ./.atlbrowse.yaml)")
}

// runSession collects credentials, opens the download history and serves the
// menu until the operator leaves.
func runSession(ctx context.Context, cfg *config.Config, console *prompt.Console, warnings io.Writer) error {
	creds, err := browse.CollectCredentials(ctx, console, browse.Credentials{
		Domain: cfg.Atlassian.Domain,
		Email:  cfg.Atlassian.Email,
		Token:  cfg.Atlassian.Token,
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, io.EOF) {
			fmt.Fprintln(console.Out(), "\nGoodbye.")
			return nil
		}
		return err
	}

	var history browse.History
	store, err := storage.OpenSQLite(cfg.History.DBPath)
	if err != nil {
		fmt.Fprintf(warnings, "Warning: download history disabled: %v\n", err)
	} else {
		defer store.Close()
		history = store
	}

	session, err := browse.NewSession(browse.Options{
		Credentials: creds,
		Settings: browse.Settings{
			IssueBatchSize: cfg.Paging.IssueBatchSize,
			PageBatchSize:  cfg.Paging.PageBatchSize,
			ScanTimeout:    cfg.Scan.RequestTimeout,
			OutputDir:      cfg.Output.Dir,
		},
		Console:   console,
		History:   history,
		UserAgent: userAgent,
	})
	if err != nil {
		return err
	}
	return browse.Run(ctx, session)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".atlbrowse")
	}

	config.ConfigureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}
		fmt.Fprintf(os.Stderr, "Config file could not be read: %v\n", err)
	}
}

package cmd

import (
	"fmt"
	"io"
	"strings"

	"atlbrowse/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. The API token
is masked.`,
	Example: `
  # Show active configuration
  atlbrowse config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		printConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), cfg)
		return nil
	},
}

func printConfig(out io.Writer, configPath string, cfg *config.Config) {
	if configPath != "" {
		fmt.Fprintln(out, "Config file loaded from:", configPath)
	} else {
		fmt.Fprintln(out, "No config file loaded; showing defaults and environment overrides.")
	}
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "%s: %s\n", config.KeyDomain, cfg.Atlassian.Domain)
	fmt.Fprintf(out, "%s: %s\n", config.KeyEmail, cfg.Atlassian.Email)
	fmt.Fprintf(out, "%s: %s\n", config.KeyToken, maskSecret(cfg.Atlassian.Token))
	fmt.Fprintf(out, "%s: %d\n", config.KeyIssueBatchSize, cfg.Paging.IssueBatchSize)
	fmt.Fprintf(out, "%s: %d\n", config.KeyPageBatchSize, cfg.Paging.PageBatchSize)
	fmt.Fprintf(out, "%s: %s\n", config.KeyScanRequestTimeout, cfg.Scan.RequestTimeout)
	fmt.Fprintf(out, "%s: %s\n", config.KeyOutputDir, cfg.Output.Dir)
	fmt.Fprintf(out, "%s: %s\n", config.KeyHistoryDBPath, cfg.History.DBPath)
}

// maskSecret keeps the last four characters of long secrets.
func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "(not set)"
	case len(value) <= 8:
		return "********"
	default:
		return "********" + value[len(value)-4:]
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

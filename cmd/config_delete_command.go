package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configDeleteYes bool

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by atlbrowse.

If no configuration file is active, the command returns an error. The file may
hold an API token, so deletion asks for confirmation unless --yes is given.`,
	Example: `
  # Delete active config
  atlbrowse config delete

  # Delete config at a custom path without prompting
  atlbrowse --configFile ./custom-atlbrowse.yaml config delete --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			return fmt.Errorf("no configuration file found")
		}

		if !configDeleteYes {
			confirmed, err := confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Delete config file %q?", configPath))
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}

		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("error deleting configuration file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file successfully deleted: %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)

	configDeleteCmd.Flags().BoolVar(&configDeleteYes, "yes", false, "Delete without the confirmation prompt")
}

package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage atlbrowse configuration file values.",
	Long: `Create, edit, display, update and delete the atlbrowse configuration file.

The configuration stores connection defaults and session tuning:
- atlassian.domain / atlassian.email / atlassian.token
- paging.issue_batch_size / paging.page_batch_size
- scan.request_timeout
- output.dir
- history.db_path`,
	Example: `
  # Create default config in $HOME/.atlbrowse.yaml
  atlbrowse config create

  # Show active config and source file
  atlbrowse config show

  # Open active config in editor (creates example if missing)
  atlbrowse config edit

  # Set one value
  atlbrowse config set atlassian.domain acme.atlassian.net

  # Delete active config file
  atlbrowse config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

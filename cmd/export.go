package cmd

import (
	"context"
	"fmt"
	"io"

	"atlbrowse/browse"
	"atlbrowse/config"
	"atlbrowse/internal/prompt"
	"atlbrowse/jira"

	"github.com/spf13/cobra"
)

var (
	exportProject string
	exportFormat  string
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all issues of a Jira project to CSV/Excel",
	Long: `Export every issue of one Jira project without the interactive menu.

Columns: Key, ID, Summary, Status, Link.
Output format can be selected explicitly via --format or inferred from --output extension.
Credentials missing from config and environment are prompted for.`,
	Example: `
  # Export to CSV
  atlbrowse export --project OPS --output ./ops-issues.csv

  # Export to Excel
  atlbrowse export --project OPS --output ./ops-issues.xlsx

  # Force Excel format independent of extension
  atlbrowse export --project OPS --format excel --output ./ops-issues.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		creds, err := browse.CollectCredentials(cmd.Context(), prompt.NewStdio(), browse.Credentials{
			Domain: cfg.Atlassian.Domain,
			Email:  cfg.Atlassian.Email,
			Token:  cfg.Atlassian.Token,
		})
		if err != nil {
			return err
		}
		client, err := newJiraClient(creds)
		if err != nil {
			return err
		}
		return runExport(cmd.Context(), client, cfg.Paging.IssueBatchSize, cmd.OutOrStdout())
	},
}

func newJiraClient(creds browse.Credentials) (*jira.HTTPClient, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	baseURL, err := creds.BaseURL()
	if err != nil {
		return nil, err
	}
	return jira.NewClient(jira.ClientConfig{
		BaseURL:  baseURL,
		Email:    creds.Email,
		APIToken: creds.Token,
	})
}

func runExport(ctx context.Context, client jira.Client, batchSize int, out io.Writer) error {
	count, format, err := browse.ExportProjectIssues(ctx, client, exportProject, exportOutput, exportFormat, batchSize)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Export completed. Issues: %d, Format: %s, File: %s\n", count, format, exportOutput)
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportProject, "project", "p", "", "Jira project key")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")

	_ = exportCmd.MarkFlagRequired("project")
	_ = exportCmd.MarkFlagRequired("output")
}

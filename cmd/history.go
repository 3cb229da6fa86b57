package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"atlbrowse/browse"
	"atlbrowse/config"
	"atlbrowse/storage"

	"github.com/spf13/cobra"
)

var (
	historyDBPath string
	historyLimit  int
	historyClear  bool
	historyYes    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the Confluence download history",
	Long: `Print pages saved with the "Download a Confluence page" menu entry, newest first.

With --clear every history record is removed. Downloaded files are kept.
Clearing asks for confirmation by typing exactly "Y" unless --yes is given.`,
	Example: `
  # Show the last 20 downloads
  atlbrowse history

  # Show more
  atlbrowse history --limit 100

  # Clear the history of a specific database
  atlbrowse history --clear --db ./atlbrowse.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := strings.TrimSpace(historyDBPath)
		if path == "" {
			cfg, err := config.LoadAndValidate()
			if err != nil {
				return err
			}
			path = cfg.History.DBPath
		}

		out := cmd.OutOrStdout()
		if historyClear {
			if !historyYes {
				confirmed, err := confirmPrompt(cmd.InOrStdin(), out, fmt.Sprintf("Clear download history in %q?", path))
				if err != nil {
					return err
				}
				if !confirmed {
					return fmt.Errorf("clear aborted: confirmation was not 'Y'")
				}
			}
			return clearHistory(out, path)
		}
		return printHistory(out, path, historyLimit)
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDBPath, "db", "", "Path to the history SQLite database (default: history.db_path from config)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of records to print (0 prints all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Remove all history records")
	historyCmd.Flags().BoolVar(&historyYes, "yes", false, "Skip the confirmation prompt for --clear")
}

func printHistory(out io.Writer, path string, limit int) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		browse.PrintDownloads(out, nil)
		return nil
	}

	store, err := storage.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer store.Close()

	downloads, err := store.ListDownloads(limit)
	if err != nil {
		return err
	}
	browse.PrintDownloads(out, downloads)
	return nil
}

func clearHistory(out io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("history database not found: %s", path)
		}
		return fmt.Errorf("stat history database: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("history path is a directory: %s", path)
	}

	store, err := storage.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.DeleteAllDownloads()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed %d history records from %s\n", removed, path)
	return nil
}

// confirmPrompt asks question and reports whether the answer was exactly "Y".
func confirmPrompt(input io.Reader, output io.Writer, question string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("confirmation input is not available")
	}
	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "%s Type Y to confirm: ", question); err != nil {
		return false, fmt.Errorf("write confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}
